package connection

import (
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	kind int
	data []byte
}

type fakeConn struct {
	mu     sync.Mutex
	frames []frame
	closed bool
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}
	c.frames = append(c.frames, frame{kind: kind, data: data})
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *fakeConn) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for _, f := range c.frames {
		if f.kind == websocket.TextMessage {
			out = append(out, string(f.data))
		}
	}
	return out
}

func TestClientWritesQueuedFramesInOrder(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient("c1", conn, 8)
	go c.WritePump(time.Hour, time.Second)
	defer c.Close()

	require.NoError(t, c.Send(map[string]any{"type": "pong"}))
	require.NoError(t, c.Send(map[string]any{"type": "seek", "payload": 0}))

	assert.Eventually(t, func() bool { return len(conn.texts()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`{"type":"pong"}`, `{"payload":0,"type":"seek"}`}, conn.texts())
}

func TestClientFullQueueClosesClient(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient("c1", conn, 1)

	require.NoError(t, c.Send("first"))
	err := c.Send("second")
	assert.ErrorIs(t, err, ErrSendQueueFull)

	select {
	case <-c.Done():
	default:
		t.Fatal("client still open after overflow")
	}
	assert.ErrorIs(t, c.Send("third"), ErrClosed)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient("c1", conn, 1)

	c.Close()
	c.Close()
	assert.True(t, conn.closed)
}

func TestClientPings(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient("c1", conn, 1)
	go c.WritePump(10*time.Millisecond, time.Second)
	defer c.Close()

	assert.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		for _, f := range conn.frames {
			if f.kind == websocket.PingMessage {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestClientRoomID(t *testing.T) {
	c := NewClient("c1", &fakeConn{}, 1)
	assert.Empty(t, c.RoomID())

	c.SetRoomID("ABC")
	assert.Equal(t, "ABC", c.RoomID())
}
