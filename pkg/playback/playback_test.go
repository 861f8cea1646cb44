package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtrapolate(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	later := base.Add(3 * time.Second)

	tests := []struct {
		name     string
		snapshot Snapshot
		now      time.Time
		want     float64
	}{
		{
			name:     "playing advances",
			snapshot: Snapshot{CurrentTime: 10, IsPlaying: true, LastUpdate: base},
			now:      later,
			want:     13,
		},
		{
			name:     "paused stays",
			snapshot: Snapshot{CurrentTime: 10, IsPlaying: false, LastUpdate: base},
			now:      later,
			want:     10,
		},
		{
			name:     "zero paused stays zero",
			snapshot: Snapshot{CurrentTime: 0, IsPlaying: false, LastUpdate: base},
			now:      base.Add(-time.Hour),
			want:     0,
		},
		{
			name:     "clock behind snapshot is clamped",
			snapshot: Snapshot{CurrentTime: 1, IsPlaying: true, LastUpdate: base},
			now:      base.Add(-5 * time.Second),
			want:     0,
		},
		{
			name:     "negative recorded position is clamped",
			snapshot: Snapshot{CurrentTime: -4, IsPlaying: false, LastUpdate: base},
			now:      later,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Extrapolate(tt.snapshot, tt.now), 1e-9)
		})
	}
}

func TestReconcileBelowThreshold(t *testing.T) {
	local := State{Position: 50, IsPlaying: true}

	got, corrected := Reconcile(local, State{Position: 51.5, IsPlaying: false}, DriftThreshold)

	assert.False(t, corrected)
	assert.Equal(t, local, got)
}

func TestReconcileAboveThreshold(t *testing.T) {
	local := State{Position: 50, IsPlaying: false}
	broadcast := State{Position: 53, IsPlaying: true}

	got, corrected := Reconcile(local, broadcast, DriftThreshold)

	assert.True(t, corrected)
	assert.Equal(t, broadcast, got)
}

func TestReconcileBehindBroadcast(t *testing.T) {
	got, corrected := Reconcile(State{Position: 60, IsPlaying: true}, State{Position: 40, IsPlaying: true}, DriftThreshold)

	assert.True(t, corrected)
	assert.InDelta(t, 40, got.Position, 1e-9)
}

func TestReconcileExactlyAtThreshold(t *testing.T) {
	_, corrected := Reconcile(State{Position: 10}, State{Position: 12}, DriftThreshold)

	assert.False(t, corrected)
}
