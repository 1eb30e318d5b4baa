package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/broadcast"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/config"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/database"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/logging"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/redis"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/server"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/standings"
)

const snapshotCacheTTL = 1 * time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// runUpdateListener re-broadcasts whenever the point-mutation layer signals
// a ledger change, so score updates reach clients without waiting out the
// per-connection tick.
func runUpdateListener(ctx context.Context, sub *redis.Subscription, cache *redis.SnapshotCache, broadcaster *broadcast.Broadcaster) {
	for {
		select {
		case update, ok := <-sub.Ch:
			if !ok {
				return
			}
			if err := cache.Invalidate(ctx); err != nil {
				slog.Warn("Failed to invalidate snapshot cache", "error", err)
			}
			broadcaster.BroadcastAll(ctx)
			slog.Debug("Ledger update broadcast", "source", update.Source)
		case <-ctx.Done():
			return
		}
	}
}

func runGracefulShutdown(srv *server.Server, broadcaster *broadcast.Broadcaster, sub *redis.Subscription, cancel context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		sub.Close()
		broadcaster.Stop()
		cancel()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := setupRedis(ctx, cfg)
	defer func() { _ = redisClient.Close() }()

	contestantRepo := database.NewContestantRepo(pool)
	contestRepo := database.NewContestRepo(pool)
	snapshotCache := redis.NewSnapshotCache(redisClient, snapshotCacheTTL)

	standingsSvc := standings.NewService(contestantRepo, contestRepo, snapshotCache)

	registry := broadcast.NewRegistry()
	broadcaster := broadcast.NewBroadcaster(standingsSvc, registry, clock, cfg.TickInterval, cfg.StoreTimeout, cfg.SnapshotLimit)

	pubsub := redis.NewPubSub(redisClient)
	sub := pubsub.Subscribe(ctx)
	go runUpdateListener(ctx, sub, snapshotCache, broadcaster)

	srv := server.NewServer(cfg, standingsSvc, broadcaster, pool, redisClient)

	done := runGracefulShutdown(srv, broadcaster, sub, cancel)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
