// Package metrics defines all Prometheus collectors, registered once via
// promauto and scraped through the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stream / broadcaster metrics
var (
	// StreamActiveConnections tracks currently registered streaming clients
	StreamActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_active_connections",
			Help: "Number of currently registered leaderboard stream connections",
		},
	)

	// StreamConnectionsTotal tracks connections accepted since startup, by transport
	StreamConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_connections_total",
			Help: "Total accepted leaderboard stream connections by transport",
		},
		[]string{"transport"},
	)

	// StreamEnvelopesSent tracks envelopes written to clients
	StreamEnvelopesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_envelopes_sent_total",
			Help: "Total leaderboard envelopes written to stream clients",
		},
	)

	// StreamWriteFailures tracks writes that failed and triggered teardown
	StreamWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_write_failures_total",
			Help: "Total stream write failures treated as client disconnects",
		},
	)

	// StreamDroppedTicks tracks ticks dropped because a previous write was pending
	StreamDroppedTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_dropped_ticks_total",
			Help: "Total broadcast ticks dropped because the client writer buffer was full",
		},
	)

	// StreamSkippedTicks tracks ticks skipped because the store was unavailable
	StreamSkippedTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_skipped_ticks_total",
			Help: "Total broadcast ticks skipped due to store errors or timeouts",
		},
	)

	// StreamConnectionDuration tracks how long stream connections stay open
	StreamConnectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stream_connection_duration_seconds",
			Help:    "Duration of leaderboard stream connections in seconds",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200},
		},
	)

	// StreamRejectedConnections tracks connections refused by the limiter
	StreamRejectedConnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_rejected_connections_total",
			Help: "Total stream connections rejected by connection limits, by reason",
		},
		[]string{"reason"},
	)
)

// Snapshot pipeline metrics
var (
	// SnapshotBuildDuration tracks ranking query + status read latency
	SnapshotBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_build_duration_seconds",
			Help:    "Time to build one leaderboard snapshot in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2},
		},
	)

	// SnapshotCacheHits tracks snapshot cache hits
	SnapshotCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_hits_total",
			Help: "Total leaderboard snapshot cache hits",
		},
	)

	// SnapshotCacheMisses tracks snapshot cache misses
	SnapshotCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_misses_total",
			Help: "Total leaderboard snapshot cache misses",
		},
	)

	// BroadcastFanoutSize tracks how many clients each on-demand broadcast reached
	BroadcastFanoutSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcast_fanout_size",
			Help:    "Number of connections reached per on-demand broadcast",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)
)

// Storage metrics
var (
	// DBQueryDuration tracks PostgreSQL query latency by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "PostgreSQL query duration in seconds by query",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks PostgreSQL errors by query name
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total PostgreSQL errors by query",
		},
		[]string{"query"},
	)

	// RedisOpsTotal tracks total Redis operations by operation and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)
