package standings

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/domain"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/metrics"
)

// top100Cutoff separates the main leaderboard from the "neighbors" view in
// search results.
const top100Cutoff = 100

// neighborRadius is how many entries to include on each side of a contestant
// ranked below the cutoff.
const neighborRadius = 10

// ContestantReader is the slice of the ledger this service reads.
type ContestantReader interface {
	domain.StandingsRepository
	Stats(ctx context.Context) (*domain.ContestantStats, error)
	Recent(ctx context.Context, limit int) ([]domain.RecentContestant, error)
}

// Service implements domain.StandingsSource. It is a pure read path: every
// call recomputes the ranking from the ledger (or the short-TTL cache), and
// nothing is retained between calls.
type Service struct {
	contestants ContestantReader
	contest     domain.ContestRepository
	cache       domain.SnapshotCache
}

var _ domain.StandingsSource = (*Service)(nil)

// NewService creates the standings service. cache may be nil; it only exists
// to collapse concurrent identical reads from the broadcast tickers.
func NewService(contestants ContestantReader, contest domain.ContestRepository, cache domain.SnapshotCache) *Service {
	return &Service{
		contestants: contestants,
		contest:     contest,
		cache:       cache,
	}
}

// Standings returns the ranked leaderboard. Ranks are dense 1..N and always
// reflect global position; a limit truncates the result after ranking.
func (s *Service) Standings(ctx context.Context, limit int) ([]domain.StandingEntry, error) {
	scores, err := s.contestants.TopContestants(ctx, limit)
	if err != nil {
		return nil, err
	}
	return rank(scores, limit), nil
}

// Snapshot pairs ranked standings with contest status, preferring the cache.
func (s *Service) Snapshot(ctx context.Context, limit int) (*domain.LeaderboardSnapshot, error) {
	if s.cache != nil {
		if snapshot, ok, err := s.cache.Get(ctx, limit); err != nil {
			slog.Debug("Snapshot cache read failed", "error", err)
		} else if ok {
			return snapshot, nil
		}
	}

	start := time.Now()
	entries, err := s.Standings(ctx, limit)
	if err != nil {
		return nil, err
	}
	status, err := s.contest.Status(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SnapshotBuildDuration.Observe(time.Since(start).Seconds())

	snapshot := &domain.LeaderboardSnapshot{Standings: entries, Contest: status}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, snapshot); err != nil {
			slog.Debug("Snapshot cache write failed", "error", err)
		}
	}

	return snapshot, nil
}

// Search locates one contestant on the full leaderboard. Contestants outside
// the top 100 get a window of neighbors so the UI can show their surroundings.
func (s *Service) Search(ctx context.Context, externalID string) (*domain.SearchResult, error) {
	entries, err := s.Standings(ctx, 0)
	if err != nil {
		return nil, err
	}

	index := -1
	for i, e := range entries {
		if e.ExternalID == externalID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, domain.ErrContestantNotFound
	}

	entry := entries[index]
	result := &domain.SearchResult{
		ExternalID:    entry.ExternalID,
		Rank:          entry.Rank,
		CurrentPoints: entry.CurrentPoints,
		IsInTop100:    entry.Rank <= top100Cutoff,
	}

	if !result.IsInTop100 {
		lo := max(0, index-neighborRadius)
		hi := min(len(entries), index+neighborRadius+1)
		result.Neighbors = append([]domain.StandingEntry(nil), entries[lo:hi]...)
	}

	return result, nil
}

// Validate checks whether a contestant ID exists, preferring an exact match
// and falling back to a case-insensitive one, so IDs typed by hand still
// resolve to the stored casing.
func (s *Service) Validate(ctx context.Context, externalID string) (*domain.ValidatedContestant, error) {
	entries, err := s.Standings(ctx, 0)
	if err != nil {
		return nil, err
	}

	var folded *domain.StandingEntry
	for i, e := range entries {
		if e.ExternalID == externalID {
			return &domain.ValidatedContestant{ExternalID: e.ExternalID, CurrentPoints: e.CurrentPoints}, nil
		}
		if folded == nil && strings.EqualFold(e.ExternalID, externalID) {
			folded = &entries[i]
		}
	}
	if folded != nil {
		return &domain.ValidatedContestant{ExternalID: folded.ExternalID, CurrentPoints: folded.CurrentPoints}, nil
	}
	return nil, domain.ErrContestantNotFound
}

// Stats reports ledger-wide contestant counters.
func (s *Service) Stats(ctx context.Context) (*domain.ContestantStats, error) {
	return s.contestants.Stats(ctx)
}

// Recent lists contestants registered in the last 24 hours.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.RecentContestant, error) {
	return s.contestants.Recent(ctx, limit)
}

// Contest returns the full stored contest row.
func (s *Service) Contest(ctx context.Context) (*domain.Contest, error) {
	return s.contest.Get(ctx)
}

// rank sorts scores by (points desc, achievement asc), assigns dense ranks
// 1..N, and truncates to limit afterwards so truncation never re-bases ranks.
// The repository already orders rows; sorting again keeps the invariant
// independent of the reader implementation.
func rank(scores []domain.ContestantScore, limit int) []domain.StandingEntry {
	ordered := append([]domain.ContestantScore(nil), scores...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CurrentPoints != ordered[j].CurrentPoints {
			return ordered[i].CurrentPoints > ordered[j].CurrentPoints
		}
		return ordered[i].FirstReachedCurrentPointsAt.Before(ordered[j].FirstReachedCurrentPointsAt)
	})

	entries := make([]domain.StandingEntry, len(ordered))
	for i, score := range ordered {
		entries[i] = domain.StandingEntry{
			Rank:                        i + 1,
			ExternalID:                  score.ExternalID,
			CurrentPoints:               score.CurrentPoints,
			FirstReachedCurrentPointsAt: score.FirstReachedCurrentPointsAt,
		}
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
