package wsrouter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	frames []string
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	if len(c.frames) == 0 {
		return 0, nil, io.EOF
	}
	f := c.frames[0]
	c.frames = c.frames[1:]

	return 1, []byte(f), nil
}

type seekInput struct {
	Time float64 `json:"time"`
}

func TestServeConnRoutesInOrder(t *testing.T) {
	r := New()

	var got []string
	Handle(r, "seek", func(ctx context.Context, in seekInput) error {
		assert.Equal(t, "seek", GetMessageTypeFromCtx(ctx))
		if in.Time == 2 {
			got = append(got, "seek:2")
		} else {
			got = append(got, "seek:other")
		}
		return nil
	})
	Handle(r, "ping", func(ctx context.Context, _ struct{}) error {
		got = append(got, "ping")
		return nil
	})

	conn := &fakeConn{frames: []string{
		`{"type":"seek","payload":{"time":2}}`,
		`{"type":"ping"}`,
		`{"type":"seek","payload":null}`,
	}}

	err := r.ServeConn(context.Background(), conn)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"seek:2", "ping", "seek:other"}, got)
}

func TestServeConnReportsErrors(t *testing.T) {
	r := New()

	handlerErr := errors.New("boom")
	Handle(r, "seek", func(ctx context.Context, in seekInput) error { return nil })
	Handle(r, "fail", func(ctx context.Context, _ struct{}) error { return handlerErr })

	type reported struct {
		msgType string
		err     error
	}
	var errs []reported
	r.OnError(func(ctx context.Context, msgType string, err error) {
		errs = append(errs, reported{msgType, err})
	})

	conn := &fakeConn{frames: []string{
		`not json`,
		`{"payload":1}`,
		`{"type":"nope"}`,
		`{"type":"seek","payload":"abc"}`,
		`{"type":"fail"}`,
	}}

	require.ErrorIs(t, r.ServeConn(context.Background(), conn), io.EOF)
	require.Len(t, errs, 5)
	assert.ErrorIs(t, errs[0].err, ErrInvalidMessage)
	assert.ErrorIs(t, errs[1].err, ErrInvalidMessage)
	assert.Equal(t, "nope", errs[2].msgType)
	assert.ErrorIs(t, errs[2].err, ErrUnknownMessageType)
	assert.ErrorIs(t, errs[3].err, ErrInvalidPayload)
	assert.ErrorIs(t, errs[4].err, handlerErr)
}
