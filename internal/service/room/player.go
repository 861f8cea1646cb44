package room

import (
	"context"
	"slices"

	"github.com/sharetube/syncroom/internal/repository/room"
	"github.com/sharetube/syncroom/pkg/playback"
)

// memberState returns the room state if connID is one of its participants.
func (s service) memberState(roomID, connID string) (room.State, error) {
	state, ok := s.registry.Snapshot(roomID)
	if !ok {
		return room.State{}, ErrRoomNotFound
	}
	if !slices.Contains(state.Members, connID) {
		return room.State{}, ErrNotInRoom
	}

	return state, nil
}

func (s service) GetCurrentVideo(ctx context.Context, params *GetCurrentVideoParams) (GetCurrentVideoResponse, error) {
	state, err := s.memberState(params.RoomID, params.ConnID)
	if err != nil {
		return GetCurrentVideoResponse{}, err
	}
	if state.VideoID == "" {
		return GetCurrentVideoResponse{}, ErrNoVideo
	}

	return GetCurrentVideoResponse{VideoID: state.VideoID}, nil
}

// GetSyncState returns the playback state extrapolated to now.
func (s service) GetSyncState(ctx context.Context, params *GetSyncStateParams) (playback.State, error) {
	state, err := s.memberState(params.RoomID, params.ConnID)
	if err != nil {
		return playback.State{}, err
	}
	if state.VideoID == "" {
		return playback.State{}, ErrNoVideo
	}

	return playback.State{
		Position:  playback.Extrapolate(state.Playback, s.now()),
		IsPlaying: state.Playback.IsPlaying,
	}, nil
}

func (s service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	rm, err := s.getRoom(params.RoomID)
	if err != nil {
		return ChangeVideoResponse{}, err
	}

	recipients, err := rm.ChangeVideo(params.SenderID, params.VideoID, s.now())
	if err != nil {
		return ChangeVideoResponse{}, mapRoomErr(err)
	}

	s.logger.InfoContext(ctx, "video changed", "video_id", params.VideoID)
	s.mirrorRoom(ctx, rm)

	return ChangeVideoResponse{
		VideoID:    params.VideoID,
		Recipients: recipients,
	}, nil
}

// UpdatePlayback handles play and pause.
func (s service) UpdatePlayback(ctx context.Context, params *UpdatePlaybackParams) (PlaybackResponse, error) {
	rm, err := s.getRoom(params.RoomID)
	if err != nil {
		return PlaybackResponse{}, err
	}

	snap, recipients, err := rm.SetPlaying(params.SenderID, params.IsPlaying, params.Time, s.now())
	if err != nil {
		return PlaybackResponse{}, mapRoomErr(err)
	}

	s.mirrorRoom(ctx, rm)

	return PlaybackResponse{
		State: playback.State{
			Position:  snap.CurrentTime,
			IsPlaying: snap.IsPlaying,
		},
		Recipients: recipients,
	}, nil
}

func (s service) Seek(ctx context.Context, params *SeekParams) (SeekResponse, error) {
	rm, err := s.getRoom(params.RoomID)
	if err != nil {
		return SeekResponse{}, err
	}

	_, recipients, err := rm.Seek(params.SenderID, params.Time, s.now())
	if err != nil {
		return SeekResponse{}, mapRoomErr(err)
	}

	s.mirrorRoom(ctx, rm)

	// the room records a clamped position, peers get the reported one
	return SeekResponse{
		Time:       params.Time,
		Recipients: recipients,
	}, nil
}

// RequestSync adopts the host's reported position and returns it for the
// other participants.
func (s service) RequestSync(ctx context.Context, params *RequestSyncParams) (PlaybackResponse, error) {
	rm, err := s.getRoom(params.RoomID)
	if err != nil {
		return PlaybackResponse{}, err
	}
	if params.Time == nil {
		return PlaybackResponse{}, ErrMissingTime
	}

	snap, recipients, err := rm.Resync(params.SenderID, *params.Time, s.now())
	if err != nil {
		return PlaybackResponse{}, mapRoomErr(err)
	}

	s.mirrorRoom(ctx, rm)

	return PlaybackResponse{
		State: playback.State{
			Position:  snap.CurrentTime,
			IsPlaying: snap.IsPlaying,
		},
		Recipients: recipients,
	}, nil
}

// RelaySyncBroadcast passes an advisory broadcast on to the other
// participants. The room itself is left untouched.
func (s service) RelaySyncBroadcast(ctx context.Context, params *RelaySyncBroadcastParams) (PlaybackResponse, error) {
	rm, err := s.getRoom(params.RoomID)
	if err != nil {
		return PlaybackResponse{}, err
	}

	recipients, err := rm.Peers(params.SenderID)
	if err != nil {
		return PlaybackResponse{}, mapRoomErr(err)
	}

	return PlaybackResponse{
		State: playback.State{
			Position:  playback.Clamp(params.State.Position),
			IsPlaying: params.State.IsPlaying,
		},
		Recipients: recipients,
	}, nil
}
