package inmemory

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharetube/syncroom/internal/repository/room"
	"github.com/sharetube/syncroom/pkg/scheduler"
)

const (
	grace = 100 * time.Millisecond
	tick  = 5 * time.Millisecond
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	s := scheduler.New()
	t.Cleanup(s.Close)

	return NewRegistry(s, grace, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetOrCreate(t *testing.T) {
	r := newTestRegistry(t)

	_, ok := r.Get("ABC")
	assert.False(t, ok)

	created := r.GetOrCreate("ABC")
	got, ok := r.Get("ABC")
	require.True(t, ok)
	assert.Same(t, created, got)
	assert.Same(t, created, r.GetOrCreate("ABC"))
	assert.Equal(t, 1, r.Len())
}

func TestGetOrCreateConcurrent(t *testing.T) {
	r := newTestRegistry(t)

	var wg sync.WaitGroup
	rooms := make([]*room.Room, 32)
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = r.GetOrCreate("SAME")
		}(i)
	}
	wg.Wait()

	for _, rm := range rooms {
		assert.Same(t, rooms[0], rm)
	}
	assert.Equal(t, 1, r.Len())
}

func TestCleanupRemovesEmptyRoom(t *testing.T) {
	r := newTestRegistry(t)

	var cleaned atomic.Value
	r.OnCleanup(func(roomID string) { cleaned.Store(roomID) })

	rm := r.GetOrCreate("ABC")
	_, err := rm.Join("A")
	require.NoError(t, err)
	_, err = rm.Leave("A")
	require.NoError(t, err)

	r.ScheduleCleanup("ABC")

	_, ok := r.Get("ABC")
	assert.True(t, ok, "room must survive until the grace window elapses")

	assert.Eventually(t, func() bool {
		_, ok := r.Get("ABC")
		return !ok
	}, time.Second, tick)
	assert.Eventually(t, func() bool { return cleaned.Load() == "ABC" }, time.Second, tick)

	_, err = rm.Join("A")
	assert.ErrorIs(t, err, room.ErrRoomDeleted)
	assert.NotSame(t, rm, r.GetOrCreate("ABC"))
}

func TestRejoinDuringGraceKeepsState(t *testing.T) {
	r := newTestRegistry(t)

	rm := r.GetOrCreate("ABC")
	_, _ = rm.Join("A")
	_, err := rm.ChangeVideo("A", "vid", time.Now())
	require.NoError(t, err)
	_, err = rm.AppendMessage("A", room.ChatMessage{Author: "a", Text: "hi"})
	require.NoError(t, err)
	_, _ = rm.Leave("A")
	r.ScheduleCleanup("ABC")

	time.Sleep(grace * 3 / 10)

	rejoined := r.GetOrCreate("ABC")
	require.Same(t, rm, rejoined)
	res, err := rejoined.Join("B")
	require.NoError(t, err)
	assert.Equal(t, "vid", res.VideoID)
	assert.Len(t, res.RecentMessages, 1)

	assert.Never(t, func() bool {
		_, ok := r.Get("ABC")
		return !ok
	}, 3*grace, tick)
}

func TestCleanupRechecksParticipants(t *testing.T) {
	r := newTestRegistry(t)

	rm := r.GetOrCreate("ABC")
	r.ScheduleCleanup("ABC")
	// joins straight on the room, so nothing cancels the pending cleanup
	_, err := rm.Join("A")
	require.NoError(t, err)

	assert.Never(t, func() bool {
		_, ok := r.Get("ABC")
		return !ok
	}, 3*grace, tick)
}

func TestSnapshot(t *testing.T) {
	r := newTestRegistry(t)

	_, ok := r.Snapshot("ABC")
	assert.False(t, ok)

	rm := r.GetOrCreate("ABC")
	_, _ = rm.Join("A")
	_, _ = rm.ChangeVideo("A", "vid", time.Now())

	s, ok := r.Snapshot("ABC")
	require.True(t, ok)
	assert.Equal(t, "ABC", s.RoomID)
	assert.Equal(t, "A", s.HostID)
	assert.Equal(t, "vid", s.VideoID)
}

func TestCloseCancelsPendingCleanups(t *testing.T) {
	r := newTestRegistry(t)

	r.GetOrCreate("ABC")
	r.ScheduleCleanup("ABC")
	r.Close()

	assert.Never(t, func() bool {
		_, ok := r.Get("ABC")
		return !ok
	}, 3*grace, tick)
}
