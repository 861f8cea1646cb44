package ctxlogger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandlerAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ContextHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := AppendCtx(context.Background(), slog.String("request_id", "r1"))
	ctx = AppendCtx(ctx, slog.String("room_id", "ABC"))
	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "r1", rec["request_id"])
	assert.Equal(t, "ABC", rec["room_id"])
}

func TestAppendCtxDoesNotShareParentSlice(t *testing.T) {
	base := AppendCtx(context.Background(), slog.String("a", "1"))
	left := AppendCtx(base, slog.String("b", "2"))
	right := AppendCtx(base, slog.String("c", "3"))

	assert.Len(t, left.Value(ctxKey{}).([]slog.Attr), 2)
	assert.Equal(t, "c", right.Value(ctxKey{}).([]slog.Attr)[1].Key)
	assert.Equal(t, "b", left.Value(ctxKey{}).([]slog.Attr)[1].Key)
}
