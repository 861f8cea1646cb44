package inmemory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/syncroom/internal/repository/room"
)

const cleanupTask = "cleanup"

type iScheduler interface {
	Schedule(owner, name string, delay time.Duration, fn func())
	Cancel(owner, name string) bool
}

// Registry maps room ids to rooms. Rooms are created on first use and removed
// once they have stayed empty for the cleanup delay.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	scheduler    iScheduler
	cleanupDelay time.Duration
	now          func() time.Time
	onCleanup    []func(roomID string)
	logger       *slog.Logger
}

func NewRegistry(scheduler iScheduler, cleanupDelay time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		rooms:        make(map[string]*room.Room),
		scheduler:    scheduler,
		cleanupDelay: cleanupDelay,
		now:          time.Now,
		logger:       logger,
	}
}

// OnCleanup registers fn to run after a room has been removed.
func (r *Registry) OnCleanup(fn func(roomID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onCleanup = append(r.onCleanup, fn)
}

// GetOrCreate returns the room with roomID, creating an empty one if needed.
// A pending cleanup of the room is cancelled.
func (r *Registry) GetOrCreate(roomID string) *room.Room {
	r.scheduler.Cancel(cleanupOwner(roomID), cleanupTask)

	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rm, ok = r.rooms[roomID]; !ok {
		rm = room.New(roomID, r.now())
		r.rooms[roomID] = rm
		r.logger.Debug("room created", "room_id", roomID)
	}

	return rm
}

func (r *Registry) Get(roomID string) (*room.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	return rm, ok
}

// ScheduleCleanup removes the room after the cleanup delay, provided it still
// has no participants by then.
func (r *Registry) ScheduleCleanup(roomID string) {
	r.scheduler.Schedule(cleanupOwner(roomID), cleanupTask, r.cleanupDelay, func() {
		r.cleanup(roomID)
	})
}

func (r *Registry) cleanup(roomID string) {
	r.mu.Lock()
	rm, ok := r.rooms[roomID]
	if !ok || !rm.MarkDeletedIfEmpty() {
		r.mu.Unlock()
		return
	}
	delete(r.rooms, roomID)
	hooks := r.onCleanup
	r.mu.Unlock()

	r.logger.Info("room cleaned up", "room_id", roomID)
	for _, fn := range hooks {
		fn(roomID)
	}
}

// Snapshot returns a copy of the room's state.
func (r *Registry) Snapshot(roomID string) (room.State, bool) {
	rm, ok := r.Get(roomID)
	if !ok {
		return room.State{}, false
	}

	return rm.State(), true
}

// Close cancels every pending cleanup. Rooms stay in place.
func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for roomID := range r.rooms {
		r.scheduler.Cancel(cleanupOwner(roomID), cleanupTask)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func cleanupOwner(roomID string) string {
	return "room:" + roomID
}
