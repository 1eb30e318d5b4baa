package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/domain"
)

// ContestantRepo implements domain.StandingsRepository backed by PostgreSQL.
// All queries are reads; point mutations happen in the CSR/admin layer.
type ContestantRepo struct {
	pool *pgxpool.Pool
}

func NewContestantRepo(pool *pgxpool.Pool) *ContestantRepo {
	return &ContestantRepo{pool: pool}
}

// TopContestants returns ledger rows ordered by points descending, ties
// broken by whoever reached their current total first. limit <= 0 returns
// every contestant (zero-point contestants sort last).
func (r *ContestantRepo) TopContestants(ctx context.Context, limit int) ([]domain.ContestantScore, error) {
	query := `
		SELECT external_id, current_points, first_reached_current_points_at
		FROM contestants
		ORDER BY current_points DESC, first_reached_current_points_at ASC`

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.pool.Query(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = r.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query contestants: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	scores := make([]domain.ContestantScore, 0, 128)
	for rows.Next() {
		var s domain.ContestantScore
		if err := rows.Scan(&s.ExternalID, &s.CurrentPoints, &s.FirstReachedCurrentPointsAt); err != nil {
			return nil, fmt.Errorf("%w: scan contestant: %v", domain.ErrStoreUnavailable, err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read contestants: %v", domain.ErrStoreUnavailable, err)
	}

	return scores, nil
}

// Stats aggregates ledger-wide counters for the public stats endpoint.
func (r *ContestantRepo) Stats(ctx context.Context) (*domain.ContestantStats, error) {
	cutoff := time.Now().Add(-24 * time.Hour)

	var stats domain.ContestantStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE current_points > 0),
			COUNT(*) FILTER (WHERE created_at >= $1)
		FROM contestants
	`, cutoff).Scan(&stats.TotalContestants, &stats.ContestantsWithPoints, &stats.RecentContestants24h)
	if err != nil {
		return nil, fmt.Errorf("%w: query contestant stats: %v", domain.ErrStoreUnavailable, err)
	}

	stats.ContestantsWithZeroPoints = stats.TotalContestants - stats.ContestantsWithPoints
	stats.LastUpdated = time.Now().UTC()
	return &stats, nil
}

// Recent lists contestants created within the last 24 hours, newest first.
func (r *ContestantRepo) Recent(ctx context.Context, limit int) ([]domain.RecentContestant, error) {
	if limit <= 0 {
		limit = 10
	}
	cutoff := time.Now().Add(-24 * time.Hour)

	rows, err := r.pool.Query(ctx, `
		SELECT external_id, first_name, current_points, created_at
		FROM contestants
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query recent contestants: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	recent := make([]domain.RecentContestant, 0, limit)
	for rows.Next() {
		var c domain.RecentContestant
		if err := rows.Scan(&c.ExternalID, &c.FirstName, &c.CurrentPoints, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan recent contestant: %v", domain.ErrStoreUnavailable, err)
		}
		recent = append(recent, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read recent contestants: %v", domain.ErrStoreUnavailable, err)
	}

	return recent, nil
}
