package domain

import (
	"context"
	"time"
)

// StandingEntry is one contestant's position on the leaderboard.
// Produced fresh on every query and never mutated afterwards.
type StandingEntry struct {
	Rank                        int       `json:"rank"`
	ExternalID                  string    `json:"external_id"`
	CurrentPoints               int       `json:"current_points"`
	FirstReachedCurrentPointsAt time.Time `json:"first_reached_current_points_at"`
}

// ContestantScore is a raw ledger row before ranks are assigned.
type ContestantScore struct {
	ExternalID                  string    `db:"external_id"`
	CurrentPoints               int       `db:"current_points"`
	FirstReachedCurrentPointsAt time.Time `db:"first_reached_current_points_at"`
}

// LeaderboardSnapshot is a fully recomputed standings list plus contest
// status, sent to clients as one unit (never a diff).
type LeaderboardSnapshot struct {
	Standings []StandingEntry `json:"standings"`
	Contest   ContestStatus   `json:"contest"`
}

// Envelope is the wire frame pushed to every streaming client.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      []StandingEntry `json:"data"`
	Contest   ContestStatus   `json:"contest"`
}

// EnvelopeTypeLeaderboardUpdate is the only event type emitted on the stream.
const EnvelopeTypeLeaderboardUpdate = "leaderboard_update"

// SearchResult locates a single contestant on the full leaderboard.
// Neighbors is populated only when the contestant is outside the top 100.
type SearchResult struct {
	ExternalID    string          `json:"external_id"`
	Rank          int             `json:"rank"`
	CurrentPoints int             `json:"current_points"`
	IsInTop100    bool            `json:"is_in_top_100"`
	Neighbors     []StandingEntry `json:"neighbors,omitempty"`
}

// ValidatedContestant is the canonical identity returned by the public
// ID-validation endpoint. ExternalID carries the stored casing even when the
// lookup matched case-insensitively.
type ValidatedContestant struct {
	ExternalID    string `json:"external_id"`
	CurrentPoints int    `json:"current_points"`
}

// ContestantStats aggregates ledger-wide counters for the stats endpoint.
type ContestantStats struct {
	TotalContestants          int       `json:"total_contestants"`
	ContestantsWithPoints     int       `json:"contestants_with_points"`
	ContestantsWithZeroPoints int       `json:"contestants_with_zero_points"`
	RecentContestants24h      int       `json:"recent_contestants_24h"`
	LastUpdated               time.Time `json:"last_updated"`
}

// RecentContestant is a newly registered contestant, shown on the public feed.
type RecentContestant struct {
	ExternalID    string    `json:"external_id"`
	FirstName     string    `json:"first_name"`
	CurrentPoints int       `json:"current_points"`
	CreatedAt     time.Time `json:"created_at"`
}

// StandingsSource produces ranked standings and contest status for the
// broadcaster and the REST handlers. Implementations must be safe for
// concurrent use; every call recomputes from the ledger (or a short-lived
// cache of it), consistency across calls is not guaranteed.
type StandingsSource interface {
	// Standings returns entries sorted by (points desc, achievement asc) with
	// dense ranks 1..N. limit <= 0 returns the full leaderboard; otherwise the
	// result is truncated after ranking, so ranks reflect global position.
	Standings(ctx context.Context, limit int) ([]StandingEntry, error)

	// Snapshot pairs the ranked standings with the current contest status.
	Snapshot(ctx context.Context, limit int) (*LeaderboardSnapshot, error)
}

// StandingsRepository is the read-only storage contract for the ledger.
type StandingsRepository interface {
	// TopContestants returns rows ordered by (current_points desc,
	// first_reached_current_points_at asc). limit <= 0 means all rows.
	TopContestants(ctx context.Context, limit int) ([]ContestantScore, error)
}

// SnapshotCache is an optional short-TTL cache in front of the ledger reads,
// shared by all per-connection tickers. A miss is not an error.
type SnapshotCache interface {
	Get(ctx context.Context, limit int) (*LeaderboardSnapshot, bool, error)
	Set(ctx context.Context, limit int, snapshot *LeaderboardSnapshot) error
	Invalidate(ctx context.Context) error
}
