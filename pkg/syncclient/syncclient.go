// Package syncclient is a Go client for a sync room. It keeps a local player
// in step with the room: authoritative sync and seek events are applied as
// they arrive, advisory broadcasts from other viewers only when the local
// position has drifted too far.
package syncclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sharetube/syncroom/pkg/playback"
	"github.com/sharetube/syncroom/pkg/wsrouter"
	"github.com/sharetube/syncroom/pkg/ytvideo"
)

// DefaultResyncDelay is how long after loading a video the client asks the
// room for the current position.
const DefaultResyncDelay = 2 * time.Second

var ErrClosed = errors.New("client closed")

// Player is the local video player. Its methods may be called from more than
// one goroutine.
type Player interface {
	Load(videoID string)
	Play()
	Pause()
	SeekTo(seconds float64)
	CurrentTime() float64
	IsPlaying() bool
}

// Conn is a websocket connection. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

type ChatMessage struct {
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type Option func(*Client)

func WithBroadcastInterval(d time.Duration) Option {
	return func(c *Client) { c.broadcastInterval = d }
}

func WithResyncDelay(d time.Duration) Option {
	return func(c *Client) { c.resyncDelay = d }
}

func WithDriftThreshold(d time.Duration) Option {
	return func(c *Client) { c.driftThreshold = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

type Client struct {
	conn   Conn
	player Player
	logger *slog.Logger
	mux    *wsrouter.WSRouter

	broadcastInterval time.Duration
	resyncDelay       time.Duration
	driftThreshold    time.Duration

	writeMu sync.Mutex

	mu        sync.Mutex
	connID    string
	roomID    string
	isHost    bool
	videoID   string
	userCount int
	messages  []ChatMessage
	resync    *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the websocket endpoint at url.
func Dial(ctx context.Context, url string, player Player, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	return New(conn, player, opts...), nil
}

func New(conn Conn, player Player, opts ...Option) *Client {
	c := &Client{
		conn:              conn,
		player:            player,
		logger:            slog.Default(),
		broadcastInterval: playback.BroadcastInterval,
		resyncDelay:       DefaultResyncDelay,
		driftThreshold:    playback.DriftThreshold,
		done:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.mux = c.getRouter()

	return c
}

// Run handles incoming events and sends periodic position broadcasts until
// the connection fails or the client is closed.
func (c *Client) Run(ctx context.Context) error {
	go c.broadcastLoop()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	err := c.mux.ServeConn(ctx, c.conn)
	select {
	case <-c.done:
		return nil
	default:
	}
	c.Close()

	return err
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		if c.resync != nil {
			c.resync.Stop()
		}
		c.mu.Unlock()

		err = c.conn.Close()
	})

	return err
}

// JoinRoom joins roomID. Room codes are case-insensitive.
func (c *Client) JoinRoom(roomID string) error {
	roomID = strings.ToUpper(strings.TrimSpace(roomID))
	if roomID == "" {
		return errors.New("room id is empty")
	}

	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()

	return c.emit("joinRoom", roomID)
}

// LoadURL switches the room to the video at rawURL.
func (c *Client) LoadURL(rawURL string) error {
	videoID, err := ytvideo.ExtractVideoID(rawURL)
	if err != nil {
		return err
	}

	c.load(videoID, false)

	return c.emit("videoChange", videoID)
}

func (c *Client) Play() error {
	c.player.Play()
	return c.emit("play", playback.State{Position: c.player.CurrentTime(), IsPlaying: true})
}

func (c *Client) Pause() error {
	c.player.Pause()
	return c.emit("pause", playback.State{Position: c.player.CurrentTime()})
}

func (c *Client) Seek(seconds float64) error {
	c.player.SeekTo(seconds)
	return c.emit("seek", seconds)
}

// Say sends a chat message and records it locally.
func (c *Client) Say(author, text string) error {
	msg := ChatMessage{
		Author:    author,
		Text:      text,
		Timestamp: time.Now().Format("15:04"),
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()

	return c.emit("chatMessage", msg)
}

func (c *Client) IsHost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.isHost
}

func (c *Client) UserCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.userCount
}

func (c *Client) VideoID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.videoID
}

func (c *Client) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.messages)
}

func (c *Client) emit(msgType string, payload any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteJSON(output{Type: msgType, Payload: payload}); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	return nil
}

// load switches the player to videoID. When resync is set the room's
// position is requested once the player has had time to load.
func (c *Client) load(videoID string, resync bool) {
	c.mu.Lock()
	c.videoID = videoID
	if c.resync != nil {
		c.resync.Stop()
		c.resync = nil
	}
	if resync {
		c.resync = time.AfterFunc(c.resyncDelay, func() {
			if err := c.emit("requestSync", c.player.CurrentTime()); err != nil {
				c.logger.Debug("failed to request sync", "error", err)
			}
		})
	}
	c.mu.Unlock()

	c.player.Load(videoID)
}

func (c *Client) broadcastLoop() {
	ticker := time.NewTicker(c.broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.VideoID() == "" || !c.player.IsPlaying() {
				continue
			}

			if err := c.emit("syncBroadcast", playback.State{
				Position:  c.player.CurrentTime(),
				IsPlaying: true,
			}); err != nil {
				c.logger.Debug("failed to broadcast position", "error", err)
			}
		}
	}
}

func (c *Client) apply(state playback.State) {
	c.player.SeekTo(state.Position)
	if state.IsPlaying {
		c.player.Play()
	} else {
		c.player.Pause()
	}
}
