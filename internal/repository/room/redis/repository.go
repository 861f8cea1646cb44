package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sharetube/syncroom/internal/repository/room"
	"github.com/sharetube/syncroom/pkg/omitnil"
)

const roomsKey = "rooms"

// repo mirrors room snapshots into redis for external observers. Nothing is
// ever read back: the in-memory room stays authoritative.
type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
	}
}

func (r repo) getPlayerKey(roomID string) string {
	return "room:" + roomID + ":player"
}

func (r repo) SaveRoom(ctx context.Context, state *room.State) error {
	var videoID, hostID *string
	if state.VideoID != "" {
		videoID = &state.VideoID
	}
	if state.HostID != "" {
		hostID = &state.HostID
	}

	playerKey := r.getPlayerKey(state.RoomID)
	fields := map[string]any{
		"video_id":     videoID,
		"host_id":      hostID,
		"members":      len(state.Members),
		"current_time": state.Playback.CurrentTime,
		"is_playing":   state.Playback.IsPlaying,
		"updated_at":   state.Playback.LastUpdate.UnixMilli(),
	}

	pipe := r.rc.TxPipeline()
	if missing := omitnil.Nil(fields); len(missing) > 0 {
		pipe.HDel(ctx, playerKey, missing...)
	}
	pipe.HSet(ctx, playerKey, omitnil.Fields(fields))
	pipe.Expire(ctx, playerKey, r.expireDuration)
	pipe.SAdd(ctx, roomsKey, state.RoomID)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

func (r repo) RemoveRoom(ctx context.Context, roomID string) error {
	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, r.getPlayerKey(roomID))
	pipe.SRem(ctx, roomsKey, roomID)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	return nil
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
