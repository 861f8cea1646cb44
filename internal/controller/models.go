package controller

import (
	"strings"

	"github.com/sharetube/syncroom/pkg/playback"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// RoomJoinedOutput also carries the connection's own id so that clients can
// recognise themselves in hostChanged.
type RoomJoinedOutput struct {
	IsHost bool   `json:"isHost"`
	ConnID string `json:"connId"`
}

type HostChangedOutput struct {
	NewHost string `json:"newHost"`
}

type ErrorOutput struct {
	Message string `json:"message"`
}

type ChatMessageInput struct {
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type SyncBroadcastInput struct {
	Time      *float64 `json:"time" validate:"required"`
	IsPlaying bool     `json:"isPlaying"`
}

func (in SyncBroadcastInput) state() playback.State {
	return playback.State{Position: *in.Time, IsPlaying: in.IsPlaying}
}

// normalizeRoomID makes room codes case-insensitive.
func normalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}
