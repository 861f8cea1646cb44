package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/syncroom/internal/repository/room"
)

func (s service) getRoom(roomID string) (*room.Room, error) {
	rm, ok := s.registry.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	return rm, nil
}

// mapRoomErr translates room record errors into the service's own.
func mapRoomErr(err error) error {
	switch {
	case errors.Is(err, room.ErrNotParticipant):
		return ErrNotInRoom
	case errors.Is(err, room.ErrNotHost):
		return ErrNotHost
	case errors.Is(err, room.ErrNoVideo):
		return ErrNoVideo
	case errors.Is(err, room.ErrRoomDeleted):
		return ErrRoomNotFound
	default:
		return fmt.Errorf("room: %w", err)
	}
}

// mirrorRoom copies the room to the mirror, if any. Failures are logged only.
func (s service) mirrorRoom(ctx context.Context, rm *room.Room) {
	if s.mirror == nil {
		return
	}

	state := rm.State()
	if err := s.mirror.SaveRoom(ctx, &state); err != nil {
		s.logger.InfoContext(ctx, "failed to mirror room", "error", err)
	}
}

func connOwner(connID string) string {
	return "conn:" + connID
}
