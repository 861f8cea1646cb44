package room

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/sharetube/syncroom/pkg/playback"
)

const (
	// HistoryLimit bounds the chat history kept per room.
	HistoryLimit = 100
	// RecentLimit is how many messages a joining connection receives.
	RecentLimit = 20
)

// Room is the authoritative state of one room. Every method takes the room's
// own lock, so operations on different rooms never contend.
type Room struct {
	mu sync.Mutex

	id           string
	participants map[string]uint64
	joinSeq      uint64
	hostID       string

	videoID     string
	currentTime float64
	isPlaying   bool
	lastUpdate  time.Time

	history []ChatMessage
	deleted bool
}

func New(id string, now time.Time) *Room {
	return &Room{
		id:           id,
		participants: make(map[string]uint64),
		lastUpdate:   now,
		history:      make([]ChatMessage, 0, RecentLimit),
	}
}

func (r *Room) ID() string {
	return r.id
}

type JoinResult struct {
	IsHost         bool
	HostChanged    bool
	Members        []string
	Others         []string
	RecentMessages []ChatMessage
	VideoID        string
}

// Join adds connID to the room and elects it host if the room has no present
// host. Joining twice is harmless.
func (r *Room) Join(connID string) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return JoinResult{}, ErrRoomDeleted
	}

	if _, ok := r.participants[connID]; !ok {
		r.joinSeq++
		r.participants[connID] = r.joinSeq
	}

	changed := r.electHostIfNeeded(connID)

	return JoinResult{
		IsHost:         r.hostID == connID,
		HostChanged:    changed,
		Members:        r.members(""),
		Others:         r.members(connID),
		RecentMessages: r.recentMessages(RecentLimit),
		VideoID:        r.videoID,
	}, nil
}

type LeaveResult struct {
	WasHost     bool
	HostChanged bool
	HostID      string
	Members     []string
}

// Leave removes connID. When the host leaves, the longest-present remaining
// participant takes over.
func (r *Room) Leave(connID string) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[connID]; !ok {
		return LeaveResult{}, ErrNotParticipant
	}
	delete(r.participants, connID)

	wasHost := r.hostID == connID
	changed := r.electHostIfNeeded("")

	return LeaveResult{
		WasHost:     wasHost,
		HostChanged: changed && r.hostID != "",
		HostID:      r.hostID,
		Members:     r.members(""),
	}, nil
}

// electHostIfNeeded keeps a present host, otherwise hands the role to
// preferred if it is a participant, otherwise to the oldest participant.
// An empty room has no host. Callers hold r.mu.
func (r *Room) electHostIfNeeded(preferred string) bool {
	if _, ok := r.participants[r.hostID]; ok && r.hostID != "" {
		return false
	}

	prev := r.hostID
	if _, ok := r.participants[preferred]; ok && preferred != "" {
		r.hostID = preferred
	} else if members := r.members(""); len(members) > 0 {
		r.hostID = members[0]
	} else {
		r.hostID = ""
	}

	return r.hostID != prev
}

// ChangeVideo loads videoID and rewinds playback to a paused start.
func (r *Room) ChangeVideo(senderID, videoID string, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkParticipant(senderID); err != nil {
		return nil, err
	}

	r.videoID = videoID
	r.currentTime = 0
	r.isPlaying = false
	r.lastUpdate = now

	return r.members(senderID), nil
}

// SetPlaying records a play or pause. A nil pos keeps the recorded position.
func (r *Room) SetPlaying(senderID string, playing bool, pos *float64, now time.Time) (playback.Snapshot, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkParticipant(senderID); err != nil {
		return playback.Snapshot{}, nil, err
	}

	if pos != nil {
		r.currentTime = playback.Clamp(*pos)
	}
	r.isPlaying = playing
	r.lastUpdate = now

	return r.snapshot(), r.members(senderID), nil
}

// Seek moves the recorded position without changing the playing flag.
func (r *Room) Seek(senderID string, pos float64, now time.Time) (float64, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkParticipant(senderID); err != nil {
		return 0, nil, err
	}

	r.currentTime = playback.Clamp(pos)
	r.lastUpdate = now

	return r.currentTime, r.members(senderID), nil
}

// Resync adopts the host's reported position.
func (r *Room) Resync(senderID string, pos float64, now time.Time) (playback.Snapshot, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkParticipant(senderID); err != nil {
		return playback.Snapshot{}, nil, err
	}
	if senderID != r.hostID {
		return playback.Snapshot{}, nil, ErrNotHost
	}

	r.currentTime = playback.Clamp(pos)
	r.lastUpdate = now

	return r.snapshot(), r.members(senderID), nil
}

// AppendMessage stores msg, dropping the oldest message past HistoryLimit.
func (r *Room) AppendMessage(senderID string, msg ChatMessage) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkParticipant(senderID); err != nil {
		return nil, err
	}

	if len(r.history) == HistoryLimit {
		copy(r.history, r.history[1:])
		r.history = r.history[:HistoryLimit-1]
	}
	r.history = append(r.history, msg)

	return r.members(senderID), nil
}

// Peers returns everyone but senderID, provided a video is loaded. It does
// not touch the playback state.
func (r *Room) Peers(senderID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkParticipant(senderID); err != nil {
		return nil, err
	}
	if r.videoID == "" {
		return nil, ErrNoVideo
	}

	return r.members(senderID), nil
}

// MarkDeletedIfEmpty flags an empty room as deleted so that concurrent joins
// holding it retry against a fresh one.
func (r *Room) MarkDeletedIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.participants) > 0 {
		return false
	}
	r.deleted = true

	return true
}

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return State{
		RoomID:       r.id,
		HostID:       r.hostID,
		Members:      r.members(""),
		VideoID:      r.videoID,
		Playback:     r.snapshot(),
		MessageCount: len(r.history),
	}
}

func (r *Room) Messages() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.recentMessages(HistoryLimit)
}

func (r *Room) checkParticipant(connID string) error {
	if _, ok := r.participants[connID]; !ok {
		return ErrNotParticipant
	}

	return nil
}

// members lists participants in join order, leaving out exclude.
func (r *Room) members(exclude string) []string {
	ids := maps.Keys(r.participants)
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Compare(r.participants[a], r.participants[b])
	})

	if exclude == "" {
		return ids
	}

	return slices.DeleteFunc(ids, func(id string) bool { return id == exclude })
}

func (r *Room) recentMessages(n int) []ChatMessage {
	start := max(len(r.history)-n, 0)
	return slices.Clone(r.history[start:])
}

func (r *Room) snapshot() playback.Snapshot {
	return playback.Snapshot{
		CurrentTime: r.currentTime,
		IsPlaying:   r.isPlaying,
		LastUpdate:  r.lastUpdate,
	}
}
