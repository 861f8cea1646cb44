package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sharetube/syncroom/internal/repository/connection"
	"github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/playback"
	"github.com/sharetube/syncroom/pkg/validator"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 << 10
	sendQueueSize  = 64
)

type iRoomService interface {
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	ScheduleSettledSync(connID, roomID string, deliver func(playback.State))
	GetCurrentVideo(context.Context, *room.GetCurrentVideoParams) (room.GetCurrentVideoResponse, error)
	GetSyncState(context.Context, *room.GetSyncStateParams) (playback.State, error)
	ChangeVideo(context.Context, *room.ChangeVideoParams) (room.ChangeVideoResponse, error)
	UpdatePlayback(context.Context, *room.UpdatePlaybackParams) (room.PlaybackResponse, error)
	Seek(context.Context, *room.SeekParams) (room.SeekResponse, error)
	RequestSync(context.Context, *room.RequestSyncParams) (room.PlaybackResponse, error)
	RelaySyncBroadcast(context.Context, *room.RelaySyncBroadcastParams) (room.PlaybackResponse, error)
	SendChatMessage(context.Context, *room.SendChatMessageParams) (room.SendChatMessageResponse, error)
	GetRoomState(context.Context, string) (room.RoomState, error)
}

type iConnRepo interface {
	Add(*connection.Client) error
	Remove(connID string) (*connection.Client, error)
	Get(connID string) (*connection.Client, error)
}

type controller struct {
	roomService iRoomService
	connRepo    iConnRepo
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, connRepo iConnRepo, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		connRepo:    connRepo,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
