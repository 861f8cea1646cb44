package syncclient

import (
	"context"

	"github.com/sharetube/syncroom/pkg/playback"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

type roomJoined struct {
	IsHost bool   `json:"isHost"`
	ConnID string `json:"connId"`
}

type hostChanged struct {
	NewHost string `json:"newHost"`
}

func (c *Client) getRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	wsrouter.Handle(mux, "roomJoined", c.handleRoomJoined)
	wsrouter.Handle(mux, "hostChanged", c.handleHostChanged)
	wsrouter.Handle(mux, "userCount", c.handleUserCount)
	wsrouter.Handle(mux, "recentMessages", c.handleRecentMessages)
	wsrouter.Handle(mux, "chatMessage", c.handleChatMessage)
	wsrouter.Handle(mux, "currentVideo", c.handleCurrentVideo)
	wsrouter.Handle(mux, "videoChange", c.handleVideoChange)
	wsrouter.Handle(mux, "sync", c.handleSync)
	wsrouter.Handle(mux, "seek", c.handleSeek)
	wsrouter.Handle(mux, "syncBroadcast", c.handleSyncBroadcast)
	wsrouter.Handle(mux, "pong", func(context.Context, any) error { return nil })
	wsrouter.Handle(mux, "error", func(ctx context.Context, e struct {
		Message string `json:"message"`
	}) error {
		c.logger.WarnContext(ctx, "server rejected message", "message", e.Message)
		return nil
	})

	mux.OnError(func(ctx context.Context, msgType string, err error) {
		c.logger.DebugContext(ctx, "failed to handle event", "type", msgType, "error", err)
	})

	return mux
}

func (c *Client) handleRoomJoined(_ context.Context, in roomJoined) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isHost = in.IsHost
	c.connID = in.ConnID

	return nil
}

func (c *Client) handleHostChanged(_ context.Context, in hostChanged) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isHost = c.connID != "" && in.NewHost == c.connID

	return nil
}

func (c *Client) handleUserCount(_ context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userCount = n

	return nil
}

func (c *Client) handleRecentMessages(_ context.Context, msgs []ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = msgs

	return nil
}

func (c *Client) handleChatMessage(_ context.Context, msg ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)

	return nil
}

func (c *Client) handleCurrentVideo(_ context.Context, videoID string) error {
	if videoID != "" {
		c.load(videoID, true)
	}

	return nil
}

func (c *Client) handleVideoChange(_ context.Context, videoID string) error {
	if videoID != "" {
		c.load(videoID, true)
	}

	return nil
}

func (c *Client) handleSync(_ context.Context, state playback.State) error {
	c.apply(state)
	return nil
}

func (c *Client) handleSeek(_ context.Context, seconds float64) error {
	c.player.SeekTo(playback.Clamp(seconds))
	return nil
}

// handleSyncBroadcast corrects the local player only when it has drifted
// past the threshold.
func (c *Client) handleSyncBroadcast(_ context.Context, broadcast playback.State) error {
	local := playback.State{
		Position:  c.player.CurrentTime(),
		IsPlaying: c.player.IsPlaying(),
	}

	next, corrected := playback.Reconcile(local, broadcast, c.driftThreshold)
	if !corrected {
		return nil
	}

	c.player.SeekTo(next.Position)
	if next.IsPlaying && !local.IsPlaying {
		c.player.Play()
	} else if !next.IsPlaying && local.IsPlaying {
		c.player.Pause()
	}

	return nil
}
