package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/broadcast"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/config"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/domain"
	apperrors "github.com/Damola-Oyin/GasFeelContentChallenge/internal/errors"
)

// standingsAPI is what the HTTP layer needs from the ranking service. The
// broadcaster consumes the same service through domain.StandingsSource.
type standingsAPI interface {
	Snapshot(ctx context.Context, limit int) (*domain.LeaderboardSnapshot, error)
	Search(ctx context.Context, externalID string) (*domain.SearchResult, error)
	Validate(ctx context.Context, externalID string) (*domain.ValidatedContestant, error)
	Stats(ctx context.Context) (*domain.ContestantStats, error)
	Recent(ctx context.Context, limit int) ([]domain.RecentContestant, error)
	Contest(ctx context.Context) (*domain.Contest, error)
}

// postgresHealthChecker is a minimal interface for PostgreSQL health checks.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

// redisHealthChecker is a minimal interface for Redis health checks.
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	standings   standingsAPI
	broadcaster *broadcast.Broadcaster
	limits      *ConnectionLimits
	db          postgresHealthChecker
	redis       redisHealthChecker
	startTime   time.Time
}

func NewServer(cfg *config.Config, standings standingsAPI, broadcaster *broadcast.Broadcaster, db postgresHealthChecker, redis redisHealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		standings:   standings,
		broadcaster: broadcaster,
		limits:      NewConnectionLimits(cfg.MaxConnections, cfg.MaxConnectionsPerIP, cfg.ConnectRate, cfg.ConnectBurst),
		db:          db,
		redis:       redis,
		startTime:   time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
