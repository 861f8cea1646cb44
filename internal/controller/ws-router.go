package controller

import (
	"context"
	"errors"

	"github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	wsrouter.Handle(mux, "joinRoom", c.handleJoinRoom)
	mux.HandleRaw("requestCurrentVideo", c.handleRequestCurrentVideo)
	mux.HandleRaw("requestCurrentState", c.handleRequestCurrentState)
	wsrouter.Handle(mux, "chatMessage", c.handleChatMessage)
	wsrouter.Handle(mux, "videoChange", c.handleVideoChange)
	mux.HandleRaw("play", c.handlePlay)
	mux.HandleRaw("pause", c.handlePause)
	mux.HandleRaw("seek", c.handleSeek)
	mux.HandleRaw("requestSync", c.handleRequestSync)
	wsrouter.Handle(mux, "syncBroadcast", c.handleSyncBroadcast)
	mux.HandleRaw("ping", c.handlePing)

	mux.OnError(c.handleWSError)

	return mux
}

// droppedErrs are expected outcomes of racing or stale clients. The event is
// dropped without telling the sender.
var droppedErrs = []error{
	room.ErrRoomNotFound,
	room.ErrNotInRoom,
	room.ErrNotHost,
	room.ErrNoVideo,
	room.ErrMissingTime,
}

func (c controller) handleWSError(ctx context.Context, msgType string, err error) {
	for _, target := range droppedErrs {
		if errors.Is(err, target) {
			c.logger.DebugContext(ctx, "event dropped", "type", msgType, "reason", err)
			return
		}
	}

	c.logger.InfoContext(ctx, "failed to handle event", "type", msgType, "error", err)

	if errors.Is(err, wsrouter.ErrInvalidMessage) || errors.Is(err, wsrouter.ErrUnknownMessageType) {
		if client := c.getClientFromCtx(ctx); client != nil {
			c.send(ctx, client, &Output{
				Type:    "error",
				Payload: ErrorOutput{Message: err.Error()},
			})
		}
	}
}
