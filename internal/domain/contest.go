package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Contest phases as stored in the contest table.
const (
	ContestStatusLive         = "live"
	ContestStatusVerification = "verification"
	ContestStatusFinal        = "final"
)

// ContestStatus is the read-only projection of contest metadata included in
// every broadcast envelope. EndAt is authoritative from storage; it is nil
// when the contest has no configured deadline.
type ContestStatus struct {
	Status              string     `json:"status"`
	EndAt               *time.Time `json:"end_at"`
	FreezePublicDisplay bool       `json:"freeze_public_display"`
}

// Contest is the single stored contest row.
type Contest struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Status              string     `json:"status"`
	StartAt             *time.Time `json:"start_at"`
	EndAt               *time.Time `json:"end_at"`
	FreezePublicDisplay bool       `json:"freeze_public_display"`
	LastPublishedAt     *time.Time `json:"last_published_at"`
}

// StatusSnapshot reduces a contest row to the projection broadcast to clients.
func (c Contest) StatusSnapshot() ContestStatus {
	return ContestStatus{
		Status:              c.Status,
		EndAt:               c.EndAt,
		FreezePublicDisplay: c.FreezePublicDisplay,
	}
}

// ContestRepository reads contest metadata from storage.
type ContestRepository interface {
	// Get returns the contest row; ErrContestNotFound when the table is empty.
	Get(ctx context.Context) (*Contest, error)
	// Status returns the broadcast projection of the contest row.
	Status(ctx context.Context) (ContestStatus, error)
}
