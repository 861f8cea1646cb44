package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/syncroom/internal/repository/room"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotInRoom    = errors.New("connection is not in the room")
	ErrNotHost      = errors.New("connection is not the host")
	ErrNoVideo      = errors.New("no video loaded")
	ErrMissingTime  = errors.New("missing playback time")
)

const settleTask = "settle"

type iRoomRegistry interface {
	GetOrCreate(roomID string) *room.Room
	Get(roomID string) (*room.Room, bool)
	Snapshot(roomID string) (room.State, bool)
	ScheduleCleanup(roomID string)
	OnCleanup(fn func(roomID string))
}

type iScheduler interface {
	Schedule(owner, name string, delay time.Duration, fn func())
	CancelOwner(owner string) int
}

// iRoomMirror receives a copy of every room after it changes.
type iRoomMirror interface {
	SaveRoom(ctx context.Context, state *room.State) error
	RemoveRoom(ctx context.Context, roomID string) error
}

type service struct {
	registry    iRoomRegistry
	scheduler   iScheduler
	mirror      iRoomMirror
	settleDelay time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewService builds the coordinator. mirror may be nil.
func NewService(registry iRoomRegistry, scheduler iScheduler, mirror iRoomMirror, settleDelay time.Duration, logger *slog.Logger) *service {
	s := service{
		registry:    registry,
		scheduler:   scheduler,
		mirror:      mirror,
		settleDelay: settleDelay,
		now:         time.Now,
		logger:      logger,
	}

	if mirror != nil {
		registry.OnCleanup(func(roomID string) {
			if err := mirror.RemoveRoom(context.Background(), roomID); err != nil {
				logger.Info("failed to remove room mirror", "room_id", roomID, "error", err)
			}
		})
	}

	return &s
}
