package room

import (
	"context"
	"errors"

	"github.com/sharetube/syncroom/internal/repository/room"
	"github.com/sharetube/syncroom/pkg/playback"
)

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	var (
		rm  *room.Room
		res room.JoinResult
		err error
	)
	for {
		rm = s.registry.GetOrCreate(params.RoomID)
		res, err = rm.Join(params.ConnID)
		// the room was garbage-collected between lookup and join
		if errors.Is(err, room.ErrRoomDeleted) {
			continue
		}
		if err != nil {
			return JoinRoomResponse{}, mapRoomErr(err)
		}
		break
	}

	s.logger.InfoContext(ctx, "joined room", "is_host", res.IsHost, "members", len(res.Members))
	s.mirrorRoom(ctx, rm)

	return JoinRoomResponse{
		IsHost:         res.IsHost,
		HostChanged:    res.HostChanged && res.IsHost && len(res.Others) > 0,
		RecentMessages: res.RecentMessages,
		VideoID:        res.VideoID,
		Members:        res.Members,
		Others:         res.Others,
	}, nil
}

// LeaveRoom removes the connection and cancels its pending tasks. An emptied
// room is scheduled for cleanup.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	s.scheduler.CancelOwner(connOwner(params.ConnID))

	rm, err := s.getRoom(params.RoomID)
	if err != nil {
		return LeaveRoomResponse{}, err
	}

	res, err := rm.Leave(params.ConnID)
	if err != nil {
		return LeaveRoomResponse{}, mapRoomErr(err)
	}

	if len(res.Members) == 0 {
		s.logger.InfoContext(ctx, "room is empty, scheduling cleanup")
		s.registry.ScheduleCleanup(params.RoomID)
	} else if res.HostChanged {
		s.logger.InfoContext(ctx, "host migrated", "new_host", res.HostID)
	}
	s.mirrorRoom(ctx, rm)

	return LeaveRoomResponse{
		HostChanged: res.HostChanged,
		NewHostID:   res.HostID,
		Members:     res.Members,
	}, nil
}

// ScheduleSettledSync calls deliver with the room's extrapolated playback
// state once the settle delay has passed. The position is computed when the
// timer fires. Nothing is delivered if the room is gone or has no video by
// then, or if the connection left in the meantime.
func (s service) ScheduleSettledSync(connID, roomID string, deliver func(playback.State)) {
	s.scheduler.Schedule(connOwner(connID), settleTask, s.settleDelay, func() {
		state, ok := s.registry.Snapshot(roomID)
		if !ok || state.VideoID == "" {
			return
		}

		deliver(playback.State{
			Position:  playback.Extrapolate(state.Playback, s.now()),
			IsPlaying: state.Playback.IsPlaying,
		})
	})
}

func (s service) GetRoomState(ctx context.Context, roomID string) (RoomState, error) {
	state, ok := s.registry.Snapshot(roomID)
	if !ok {
		return RoomState{}, ErrRoomNotFound
	}

	return RoomState{
		RoomID:           state.RoomID,
		HostID:           state.HostID,
		ParticipantCount: len(state.Members),
		VideoID:          state.VideoID,
		CurrentTime:      playback.Extrapolate(state.Playback, s.now()),
		IsPlaying:        state.Playback.IsPlaying,
		MessageCount:     state.MessageCount,
	}, nil
}
