package playback

import (
	"math"
	"time"
)

const (
	// DriftThreshold is the largest gap between a local position and a
	// broadcast one that is left uncorrected.
	DriftThreshold = 2 * time.Second
	// BroadcastInterval is how often a playing client announces its position.
	BroadcastInterval = 5 * time.Second
)

// State is a client's view of playback.
type State struct {
	Position  float64 `json:"time"`
	IsPlaying bool    `json:"isPlaying"`
}

// Reconcile applies the drift policy to a local state given a position
// broadcast by another client. When the positions differ by more than
// threshold the broadcast state is returned with corrected set; otherwise
// local is returned untouched.
func Reconcile(local, broadcast State, threshold time.Duration) (State, bool) {
	if math.Abs(local.Position-broadcast.Position) <= threshold.Seconds() {
		return local, false
	}

	return State{
		Position:  Clamp(broadcast.Position),
		IsPlaying: broadcast.IsPlaying,
	}, true
}
