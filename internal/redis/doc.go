// Package redis provides the Redis client plus the two leaderboard uses of
// it: a short-TTL snapshot cache shared by all broadcast tickers, and the
// pub/sub channel the point-mutation layer uses to trigger on-demand
// broadcasts. Metrics and circuit-breaker hooks cover every operation.
package redis
