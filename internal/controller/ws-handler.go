package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sharetube/syncroom/internal/repository/connection"
	"github.com/sharetube/syncroom/internal/repository/room"
	roomService "github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/ctxlogger"
	"github.com/sharetube/syncroom/pkg/playback"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

func (c controller) handleJoinRoom(ctx context.Context, roomID string) error {
	ctx, client := c.clientCtx(ctx)

	roomID = normalizeRoomID(roomID)
	if err := c.validate.Var(roomID, "required"); err != nil {
		return fmt.Errorf("%w: room id: %w", wsrouter.ErrInvalidPayload, err)
	}

	if prev := client.RoomID(); prev != "" && prev != roomID {
		c.leaveRoom(ctx, client)
	}

	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomID))
	resp, err := c.roomService.JoinRoom(ctx, &roomService.JoinRoomParams{
		ConnID: client.ID(),
		RoomID: roomID,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	client.SetRoomID(roomID)

	c.send(ctx, client, &Output{
		Type:    "roomJoined",
		Payload: RoomJoinedOutput{IsHost: resp.IsHost, ConnID: client.ID()},
	})
	c.send(ctx, client, &Output{
		Type:    "recentMessages",
		Payload: nonNil(resp.RecentMessages),
	})
	if resp.VideoID != "" {
		c.sendCurrentVideo(ctx, client, roomID, resp.VideoID)
	}

	c.broadcast(ctx, resp.Members, &Output{
		Type:    "userCount",
		Payload: len(resp.Members),
	})
	if resp.HostChanged {
		c.broadcast(ctx, resp.Others, &Output{
			Type:    "hostChanged",
			Payload: HostChangedOutput{NewHost: client.ID()},
		})
	}

	return nil
}

// sendCurrentVideo tells client which video to load and follows up with the
// playback state once the player has had time to settle.
func (c controller) sendCurrentVideo(ctx context.Context, client *connection.Client, roomID, videoID string) {
	c.send(ctx, client, &Output{
		Type:    "currentVideo",
		Payload: videoID,
	})

	c.roomService.ScheduleSettledSync(client.ID(), roomID, func(state playback.State) {
		c.send(ctx, client, &Output{
			Type:    "sync",
			Payload: state,
		})
	})
}

func (c controller) handleRequestCurrentVideo(ctx context.Context, _ json.RawMessage) error {
	ctx, client := c.clientCtx(ctx)
	roomID := client.RoomID()

	resp, err := c.roomService.GetCurrentVideo(ctx, &roomService.GetCurrentVideoParams{
		ConnID: client.ID(),
		RoomID: roomID,
	})
	if err != nil {
		return fmt.Errorf("failed to get current video: %w", err)
	}

	c.sendCurrentVideo(ctx, client, roomID, resp.VideoID)

	return nil
}

func (c controller) handleRequestCurrentState(ctx context.Context, _ json.RawMessage) error {
	ctx, client := c.clientCtx(ctx)

	state, err := c.roomService.GetSyncState(ctx, &roomService.GetSyncStateParams{
		ConnID: client.ID(),
		RoomID: client.RoomID(),
	})
	if err != nil {
		return fmt.Errorf("failed to get sync state: %w", err)
	}

	c.send(ctx, client, &Output{
		Type:    "sync",
		Payload: state,
	})

	return nil
}

func (c controller) handleChatMessage(ctx context.Context, input ChatMessageInput) error {
	ctx, client := c.clientCtx(ctx)

	resp, err := c.roomService.SendChatMessage(ctx, &roomService.SendChatMessageParams{
		SenderID: client.ID(),
		RoomID:   client.RoomID(),
		Message: room.ChatMessage{
			Author:    input.Author,
			Text:      input.Text,
			Timestamp: input.Timestamp,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	c.broadcast(ctx, resp.Recipients, &Output{
		Type:    "chatMessage",
		Payload: resp.Message,
	})

	return nil
}

func (c controller) handleVideoChange(ctx context.Context, videoID string) error {
	ctx, client := c.clientCtx(ctx)

	if err := c.validate.Var(videoID, "required,max=256"); err != nil {
		return fmt.Errorf("%w: video id: %w", wsrouter.ErrInvalidPayload, err)
	}

	resp, err := c.roomService.ChangeVideo(ctx, &roomService.ChangeVideoParams{
		SenderID: client.ID(),
		RoomID:   client.RoomID(),
		VideoID:  videoID,
	})
	if err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	c.broadcast(ctx, resp.Recipients, &Output{
		Type:    "videoChange",
		Payload: resp.VideoID,
	})

	return nil
}

func (c controller) handlePlay(ctx context.Context, payload json.RawMessage) error {
	return c.updatePlayback(ctx, true, payload)
}

func (c controller) handlePause(ctx context.Context, payload json.RawMessage) error {
	return c.updatePlayback(ctx, false, payload)
}

func (c controller) updatePlayback(ctx context.Context, isPlaying bool, payload json.RawMessage) error {
	ctx, client := c.clientCtx(ctx)

	var input struct {
		Time json.RawMessage `json:"time"`
	}
	// a payload without a usable time still counts as play or pause
	if err := json.Unmarshal(payload, &input); err != nil {
		input.Time = nil
	}

	resp, err := c.roomService.UpdatePlayback(ctx, &roomService.UpdatePlaybackParams{
		SenderID:  client.ID(),
		RoomID:    client.RoomID(),
		IsPlaying: isPlaying,
		Time:      parseTime(input.Time),
	})
	if err != nil {
		return fmt.Errorf("failed to update playback: %w", err)
	}

	c.broadcast(ctx, resp.Recipients, &Output{
		Type:    "sync",
		Payload: resp.State,
	})

	return nil
}

func (c controller) handleSeek(ctx context.Context, payload json.RawMessage) error {
	ctx, client := c.clientCtx(ctx)

	t := parseTime(payload)
	if t == nil {
		return fmt.Errorf("%w: seek time is not a number", wsrouter.ErrInvalidPayload)
	}

	resp, err := c.roomService.Seek(ctx, &roomService.SeekParams{
		SenderID: client.ID(),
		RoomID:   client.RoomID(),
		Time:     *t,
	})
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	c.broadcast(ctx, resp.Recipients, &Output{
		Type:    "seek",
		Payload: resp.Time,
	})

	return nil
}

func (c controller) handleRequestSync(ctx context.Context, payload json.RawMessage) error {
	ctx, client := c.clientCtx(ctx)

	resp, err := c.roomService.RequestSync(ctx, &roomService.RequestSyncParams{
		SenderID: client.ID(),
		RoomID:   client.RoomID(),
		Time:     parseTime(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to resync: %w", err)
	}

	c.broadcast(ctx, resp.Recipients, &Output{
		Type:    "sync",
		Payload: resp.State,
	})

	return nil
}

func (c controller) handleSyncBroadcast(ctx context.Context, input SyncBroadcastInput) error {
	ctx, client := c.clientCtx(ctx)

	if err := c.validate.Validate(input); err != nil {
		return fmt.Errorf("%w: %w", wsrouter.ErrInvalidPayload, err)
	}

	resp, err := c.roomService.RelaySyncBroadcast(ctx, &roomService.RelaySyncBroadcastParams{
		SenderID: client.ID(),
		RoomID:   client.RoomID(),
		State:    input.state(),
	})
	if err != nil {
		return fmt.Errorf("failed to relay sync broadcast: %w", err)
	}

	c.broadcast(ctx, resp.Recipients, &Output{
		Type:    "syncBroadcast",
		Payload: resp.State,
	})

	return nil
}

func (c controller) handlePing(ctx context.Context, _ json.RawMessage) error {
	ctx, client := c.clientCtx(ctx)
	c.send(ctx, client, &Output{Type: "pong"})

	return nil
}

// parseTime reads a playback position. Anything but a JSON number yields nil.
func parseTime(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}

	var t *float64
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}

	return t
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
