package connection

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one connected websocket. Writes go through a buffered queue
// drained by WritePump, so senders never block on the network.
type Client struct {
	id   string
	conn Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	roomID string
}

func NewClient(id string, conn Conn, queueSize int) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// RoomID is the room the client has joined, or empty.
func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.roomID
}

func (c *Client) SetRoomID(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roomID = roomID
}

// Send queues v as a JSON text frame. A client that cannot keep up is closed.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		c.Close()
		return ErrSendQueueFull
	}
}

// WritePump writes queued frames and periodic pings until the client is
// closed or a write fails.
func (c *Client) WritePump(pingPeriod, writeWait time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close stops the write pump and closes the underlying connection. It is safe
// to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
