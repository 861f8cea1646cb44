package playback

import (
	"math"
	"time"
)

// Snapshot is a playback position recorded at a point in time.
type Snapshot struct {
	CurrentTime float64
	IsPlaying   bool
	LastUpdate  time.Time
}

// Extrapolate estimates the playback position of s at now. A playing snapshot
// advances in real time; a paused one stays where it was. The result is never
// negative.
func Extrapolate(s Snapshot, now time.Time) float64 {
	pos := s.CurrentTime
	if s.IsPlaying {
		pos += now.Sub(s.LastUpdate).Seconds()
	}

	return Clamp(pos)
}

// Clamp maps negative and NaN positions to zero.
func Clamp(pos float64) float64 {
	if math.IsNaN(pos) || pos < 0 {
		return 0
	}

	return pos
}
