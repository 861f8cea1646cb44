package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sharetube/syncroom/internal/repository/connection"
	"github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/ctxlogger"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	client := connection.NewClient(uuid.NewString(), conn, sendQueueSize)
	if err := c.connRepo.Add(client); err != nil {
		c.logger.WarnContext(r.Context(), "failed to register connection", "error", err)
		conn.Close()
		return
	}

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("conn_id", client.ID()))
	ctx = context.WithValue(ctx, clientCtxKey, client)
	defer c.disconnect(ctx, client)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go client.WritePump(pingPeriod, writeWait)

	c.logger.InfoContext(ctx, "connection opened")
	if err := c.wsmux.ServeConn(ctx, conn); err != nil &&
		websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		c.logger.InfoContext(ctx, "connection read failed", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, client *connection.Client) {
	c.leaveRoom(ctx, client)

	if _, err := c.connRepo.Remove(client.ID()); err != nil {
		c.logger.WarnContext(ctx, "failed to remove connection", "error", err)
	}
	client.Close()

	c.logger.InfoContext(ctx, "connection closed")
}

// leaveRoom takes client out of its current room, if any, and tells the
// remaining participants.
func (c controller) leaveRoom(ctx context.Context, client *connection.Client) {
	roomID := client.RoomID()
	if roomID == "" {
		return
	}
	client.SetRoomID("")

	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomID))
	resp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		ConnID: client.ID(),
		RoomID: roomID,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to leave room", "error", err)
		return
	}

	if len(resp.Members) == 0 {
		return
	}

	if resp.HostChanged {
		c.broadcast(ctx, resp.Members, &Output{
			Type:    "hostChanged",
			Payload: HostChangedOutput{NewHost: resp.NewHostID},
		})
	}
	c.broadcast(ctx, resp.Members, &Output{
		Type:    "userCount",
		Payload: len(resp.Members),
	})
}

// clientCtx returns the calling client and ctx annotated with its room.
func (c controller) clientCtx(ctx context.Context) (context.Context, *connection.Client) {
	client := c.getClientFromCtx(ctx)
	if msgType := wsrouter.GetMessageTypeFromCtx(ctx); msgType != "" {
		ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", msgType))
	}
	if roomID := client.RoomID(); roomID != "" {
		ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomID))
	}

	return ctx, client
}
