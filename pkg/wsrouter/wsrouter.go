package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage     = errors.New("invalid message")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Conn is the read side of a websocket connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
}

type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// ErrorHandlerFunc is called for every message that could not be routed or
// whose handler failed. msgType is empty when the envelope itself was bad.
type ErrorHandlerFunc func(ctx context.Context, msgType string, err error)

type WSRouter struct {
	routes  map[string]HandlerFunc
	onError ErrorHandlerFunc
}

func New() *WSRouter {
	return &WSRouter{
		routes:  make(map[string]HandlerFunc),
		onError: func(context.Context, string, error) {},
	}
}

func (r *WSRouter) HandleRaw(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

func (r *WSRouter) OnError(fn ErrorHandlerFunc) {
	r.onError = fn
}

// Handle registers a handler whose payload is decoded into T. A missing or
// null payload leaves T at its zero value.
func Handle[T any](r *WSRouter, messageType string, handler func(ctx context.Context, input T) error) {
	r.HandleRaw(messageType, func(ctx context.Context, payload json.RawMessage) error {
		var input T
		if !isEmpty(payload) {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		return handler(ctx, input)
	})
}

// ServeConn reads messages until the connection fails and dispatches them one
// at a time, so a connection's messages are handled in the order they were
// sent. It returns the read error.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			r.onError(ctx, "", ErrInvalidMessage)
			continue
		}

		handler, ok := r.routes[msg.Type]
		if !ok {
			r.onError(ctx, msg.Type, ErrUnknownMessageType)
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, msg.Payload); err != nil {
			r.onError(msgCtx, msg.Type, err)
		}
	}
}

func isEmpty(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
