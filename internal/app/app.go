package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sharetube/syncroom/internal/controller"
	connInmemory "github.com/sharetube/syncroom/internal/repository/connection/inmemory"
	"github.com/sharetube/syncroom/internal/repository/room"
	"github.com/sharetube/syncroom/internal/repository/room/inmemory"
	roomRedis "github.com/sharetube/syncroom/internal/repository/room/redis"
	roomService "github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/ctxlogger"
	"github.com/sharetube/syncroom/pkg/redisclient"
	"github.com/sharetube/syncroom/pkg/scheduler"
)

const shutdownTimeout = 30 * time.Second

type AppConfig struct {
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	LogLevel      string        `json:"log_level"`
	CleanupDelay  time.Duration `json:"cleanup_delay"`
	SettleDelay   time.Duration `json:"settle_delay"`
	RedisHost     string        `json:"redis_host"`
	RedisPort     int           `json:"redis_port"`
	RedisPassword string        `json:"-"`
	RedisDB       int           `json:"redis_db"`
	RedisTTL      time.Duration `json:"redis_ttl"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	if cfg.CleanupDelay <= 0 {
		return fmt.Errorf("cleanup delay must be greater than 0")
	}
	if cfg.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative")
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.RedisHost != "" {
		if cfg.RedisPort < 1 || cfg.RedisPort > 65535 {
			return fmt.Errorf("redis port must be between 1 and 65535")
		}
		if cfg.RedisTTL <= 0 {
			return fmt.Errorf("redis ttl must be greater than 0")
		}
	}

	return nil
}

func parseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return l, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}),
	}

	return slog.New(h)
}

type roomMirror interface {
	SaveRoom(ctx context.Context, state *room.State) error
	RemoveRoom(ctx context.Context, roomID string) error
}

type connRepo interface {
	Len() int
	CloseAll()
}

type application struct {
	server    *http.Server
	connRepo  connRepo
	registry  *inmemory.Registry
	scheduler *scheduler.Scheduler
	rc        *redis.Client
	logger    *slog.Logger
}

func newApplication(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*application, error) {
	a := &application{
		scheduler: scheduler.New(),
		logger:    logger,
	}
	a.registry = inmemory.NewRegistry(a.scheduler, cfg.CleanupDelay, logger)

	var mirror roomMirror
	if cfg.RedisHost != "" {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			a.scheduler.Close()
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		a.rc = rc
		mirror = roomRedis.NewRepo(rc, cfg.RedisTTL)
	}

	conns := connInmemory.NewRepo(logger)
	a.connRepo = conns

	svc := roomService.NewService(a.registry, a.scheduler, mirror, cfg.SettleDelay, logger)
	ctrl := controller.NewController(svc, conns, logger)

	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           ctrl.GetMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down and
// drops every websocket connection.
func (a *application) serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfoContext(gctx, "starting server", "address", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down server", "rooms", a.registry.Len(), "connections", a.connRepo.Len())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.connRepo.CloseAll()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}

		return nil
	})

	return g.Wait()
}

func (a *application) close() {
	a.registry.Close()
	a.scheduler.Close()
	if a.rc != nil {
		if err := a.rc.Close(); err != nil {
			a.logger.Warn("failed to close redis client", "error", err)
		}
	}
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, _ := parseLogLevel(cfg.LogLevel)
	logger := newLogger(os.Stdout, level)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}

	return a.serve(ctx, ln)
}
