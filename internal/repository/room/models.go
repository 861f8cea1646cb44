package room

import (
	"errors"

	"github.com/sharetube/syncroom/pkg/playback"
)

var (
	ErrRoomDeleted    = errors.New("room deleted")
	ErrNotParticipant = errors.New("connection is not a participant")
	ErrNotHost        = errors.New("connection is not the host")
	ErrNoVideo        = errors.New("no video loaded")
)

type ChatMessage struct {
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// State is a point-in-time copy of a room.
type State struct {
	RoomID       string
	HostID       string
	Members      []string
	VideoID      string
	Playback     playback.Snapshot
	MessageCount int
}
