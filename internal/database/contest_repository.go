package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/domain"
)

// ContestRepo implements domain.ContestRepository backed by PostgreSQL.
// The contest table holds a single row; freezing and status transitions are
// performed by the admin layer and simply show up on the next read.
type ContestRepo struct {
	pool *pgxpool.Pool
}

func NewContestRepo(pool *pgxpool.Pool) *ContestRepo {
	return &ContestRepo{pool: pool}
}

func (r *ContestRepo) Get(ctx context.Context) (*domain.Contest, error) {
	var c domain.Contest
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, status, start_at, end_at, freeze_public_display, last_published_at
		FROM contest
		ORDER BY created_at ASC
		LIMIT 1
	`).Scan(&c.ID, &c.Name, &c.Status, &c.StartAt, &c.EndAt, &c.FreezePublicDisplay, &c.LastPublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query contest: %v", domain.ErrStoreUnavailable, err)
	}

	return &c, nil
}

func (r *ContestRepo) Status(ctx context.Context) (domain.ContestStatus, error) {
	contest, err := r.Get(ctx)
	if err != nil {
		return domain.ContestStatus{}, err
	}
	return contest.StatusSnapshot(), nil
}
