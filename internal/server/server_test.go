package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/broadcast"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/config"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/domain"
)

// fakeStandings serves canned responses for handler tests.
type fakeStandings struct {
	snapshot *domain.LeaderboardSnapshot
	search   *domain.SearchResult
	stats    *domain.ContestantStats
	recent   []domain.RecentContestant
	contest  *domain.Contest
	err      error
}

func (f *fakeStandings) Standings(_ context.Context, _ int) ([]domain.StandingEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot.Standings, nil
}

func (f *fakeStandings) Snapshot(_ context.Context, _ int) (*domain.LeaderboardSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func (f *fakeStandings) Search(_ context.Context, externalID string) (*domain.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.search == nil || f.search.ExternalID != externalID {
		return nil, domain.ErrContestantNotFound
	}
	return f.search, nil
}

func (f *fakeStandings) Validate(_ context.Context, externalID string) (*domain.ValidatedContestant, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, entry := range f.snapshot.Standings {
		if strings.EqualFold(entry.ExternalID, externalID) {
			return &domain.ValidatedContestant{ExternalID: entry.ExternalID, CurrentPoints: entry.CurrentPoints}, nil
		}
	}
	return nil, domain.ErrContestantNotFound
}

func (f *fakeStandings) Stats(_ context.Context) (*domain.ContestantStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeStandings) Recent(_ context.Context, limit int) ([]domain.RecentContestant, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeStandings) Contest(_ context.Context) (*domain.Contest, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.contest == nil {
		return nil, domain.ErrContestNotFound
	}
	return f.contest, nil
}

func defaultFakeStandings() *fakeStandings {
	endAt := time.Now().Add(24 * time.Hour).UTC()
	return &fakeStandings{
		snapshot: &domain.LeaderboardSnapshot{
			Standings: []domain.StandingEntry{
				{Rank: 1, ExternalID: "GF-AAAAAA", CurrentPoints: 30, FirstReachedCurrentPointsAt: time.Unix(1700000000, 0).UTC()},
				{Rank: 2, ExternalID: "GF-BBBBBB", CurrentPoints: 10, FirstReachedCurrentPointsAt: time.Unix(1700000100, 0).UTC()},
			},
			Contest: domain.ContestStatus{Status: domain.ContestStatusLive, EndAt: &endAt},
		},
		search: &domain.SearchResult{ExternalID: "GF-AAAAAA", Rank: 1, CurrentPoints: 30, IsInTop100: true},
		stats: &domain.ContestantStats{
			TotalContestants:      2,
			ContestantsWithPoints: 2,
			LastUpdated:           time.Now().UTC(),
		},
		recent: []domain.RecentContestant{
			{ExternalID: "GF-AAAAAA", FirstName: "Ada", CurrentPoints: 30, CreatedAt: time.Now().UTC()},
		},
		contest: &domain.Contest{Status: domain.ContestStatusLive, EndAt: &endAt},
	}
}

type fakePostgresPinger struct{ err error }

func (f *fakePostgresPinger) Ping(_ context.Context) error { return f.err }

type fakeRedisPinger struct{ err error }

func (f *fakeRedisPinger) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		Port:                "0",
		SnapshotLimit:       100,
		TickInterval:        time.Hour,
		StoreTimeout:        time.Second,
		MaxConnections:      100,
		MaxConnectionsPerIP: 10,
		ConnectRate:         1000,
		ConnectBurst:        1000,
	}
}

// newTestServer wires a Server around the fake, which serves both the HTTP
// layer (standingsAPI) and the broadcaster (domain.StandingsSource).
func newTestServer(t *testing.T, api *fakeStandings, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	registry := broadcast.NewRegistry()
	broadcaster := broadcast.NewBroadcaster(api, registry, clockwork.NewRealClock(), cfg.TickInterval, cfg.StoreTimeout, cfg.SnapshotLimit)
	t.Cleanup(broadcaster.Stop)
	return NewServer(cfg, api, broadcaster, &fakePostgresPinger{}, &fakeRedisPinger{})
}
