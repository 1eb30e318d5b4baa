package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/domain"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/metrics"
)

const snapshotKeyPrefix = "leaderboard:snapshot:"

// SnapshotCache implements domain.SnapshotCache on Redis. Every connected
// client runs its own broadcast ticker, so without this cache N clients mean
// N identical PostgreSQL queries per interval. The TTL is kept below the tick
// interval so clients never see a snapshot older than one tick.
type SnapshotCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSnapshotCache(rdb *goredis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

var _ domain.SnapshotCache = (*SnapshotCache)(nil)

func snapshotKey(limit int) string {
	return fmt.Sprintf("%s%d", snapshotKeyPrefix, limit)
}

// Get returns the cached snapshot for this limit, or ok=false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, limit int) (*domain.LeaderboardSnapshot, bool, error) {
	payload, err := c.rdb.Get(ctx, snapshotKey(limit)).Result()
	if errors.Is(err, goredis.Nil) {
		metrics.SnapshotCacheMisses.Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.SnapshotCacheMisses.Inc()
		return nil, false, fmt.Errorf("snapshot cache get: %w", err)
	}

	var snapshot domain.LeaderboardSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		// Treat a corrupt entry as a miss; the next Set overwrites it.
		metrics.SnapshotCacheMisses.Inc()
		return nil, false, fmt.Errorf("snapshot cache decode: %w", err)
	}

	metrics.SnapshotCacheHits.Inc()
	return &snapshot, true, nil
}

func (c *SnapshotCache) Set(ctx context.Context, limit int, snapshot *domain.LeaderboardSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("snapshot cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, snapshotKey(limit), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot cache set: %w", err)
	}
	return nil
}

// Invalidate drops all cached snapshots; called when the mutation layer
// signals a ledger change so the next tick recomputes immediately.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, snapshotKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("snapshot cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("snapshot cache del: %w", err)
	}
	return nil
}
