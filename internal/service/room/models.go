package room

import (
	"github.com/sharetube/syncroom/internal/repository/room"
	"github.com/sharetube/syncroom/pkg/playback"
)

// RoomState is the public view of a room.
type RoomState struct {
	RoomID           string  `json:"room_id"`
	HostID           string  `json:"host_id"`
	ParticipantCount int     `json:"participant_count"`
	VideoID          string  `json:"video_id"`
	CurrentTime      float64 `json:"current_time"`
	IsPlaying        bool    `json:"is_playing"`
	MessageCount     int     `json:"message_count"`
}

type JoinRoomParams struct {
	ConnID string
	RoomID string
}

type JoinRoomResponse struct {
	IsHost bool
	// HostChanged is set when the joiner took over a room that already had
	// other participants.
	HostChanged    bool
	RecentMessages []room.ChatMessage
	VideoID        string
	Members        []string
	Others         []string
}

type LeaveRoomParams struct {
	ConnID string
	RoomID string
}

type LeaveRoomResponse struct {
	HostChanged bool
	NewHostID   string
	Members     []string
}

type GetCurrentVideoParams struct {
	ConnID string
	RoomID string
}

type GetCurrentVideoResponse struct {
	VideoID string
}

type GetSyncStateParams struct {
	ConnID string
	RoomID string
}

type ChangeVideoParams struct {
	SenderID string
	RoomID   string
	VideoID  string
}

type ChangeVideoResponse struct {
	VideoID    string
	Recipients []string
}

type UpdatePlaybackParams struct {
	SenderID  string
	RoomID    string
	IsPlaying bool
	// Time is nil when the client did not report a position.
	Time *float64
}

type PlaybackResponse struct {
	State      playback.State
	Recipients []string
}

type SeekParams struct {
	SenderID string
	RoomID   string
	Time     float64
}

type SeekResponse struct {
	Time       float64
	Recipients []string
}

type RequestSyncParams struct {
	SenderID string
	RoomID   string
	Time     *float64
}

type RelaySyncBroadcastParams struct {
	SenderID string
	RoomID   string
	State    playback.State
}

type SendChatMessageParams struct {
	SenderID string
	RoomID   string
	Message  room.ChatMessage
}

type SendChatMessageResponse struct {
	Message    room.ChatMessage
	Recipients []string
}
