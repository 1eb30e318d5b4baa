package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool with production pool settings and
// verifies connectivity before returning.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MinConns = 5
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.ConnConfig.Tracer = &MetricsTracer{}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the schema. Statements are idempotent so repeated
// startups are safe.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS contestants (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			external_id TEXT UNIQUE NOT NULL,
			phone_whatsapp TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			department TEXT,
			student_email TEXT,
			current_points INTEGER NOT NULL DEFAULT 0 CHECK (current_points >= 0),
			first_reached_current_points_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contestants_ranking
			ON contestants (current_points DESC, first_reached_current_points_at ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_contestants_created_at ON contestants (created_at)`,
		`CREATE TABLE IF NOT EXISTS contest (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			start_at TIMESTAMPTZ,
			end_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'live'
				CHECK (status IN ('live', 'verification', 'final')),
			last_published_at TIMESTAMPTZ,
			freeze_public_display BOOLEAN NOT NULL DEFAULT FALSE,
			rules_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}
