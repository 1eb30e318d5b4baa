package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/domain"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/metrics"
	"github.com/jonboulle/clockwork"
)

// Broadcaster pushes leaderboard snapshots to registered connections.
// Each connection gets its own ticker goroutine, so clients that connected
// at different times receive updates on independent schedules, and one
// stalled ledger read never delays another client's tick.
type Broadcaster struct {
	source        domain.StandingsSource
	registry      *Registry
	clock         clockwork.Clock
	tickInterval  time.Duration
	storeTimeout  time.Duration
	snapshotLimit int
}

// NewBroadcaster creates a broadcaster over the given standings source.
// tickInterval is the per-connection push period, storeTimeout bounds each
// ledger read, snapshotLimit caps the entries per envelope.
func NewBroadcaster(source domain.StandingsSource, registry *Registry, clock clockwork.Clock, tickInterval, storeTimeout time.Duration, snapshotLimit int) *Broadcaster {
	return &Broadcaster{
		source:        source,
		registry:      registry,
		clock:         clock,
		tickInterval:  tickInterval,
		storeTimeout:  storeTimeout,
		snapshotLimit: snapshotLimit,
	}
}

// Connect wraps a transport sink into a registered connection: the client
// receives an immediate snapshot (no first-tick wait) and then periodic
// pushes until OnDisconnect or a write failure.
func (b *Broadcaster) Connect(sink Sink) *Conn {
	conn := NewConn(sink, b.clock, b.OnDisconnect)
	b.registry.Register(conn)
	b.pushSnapshot(conn)
	go b.tickLoop(conn)
	slog.Debug("streaming client connected", "connection_id", conn.ID().String(), "active", b.registry.Len())
	return conn
}

// OnDisconnect tears a connection down: deregister first so no new pushes
// target it, then stop the writer. Idempotent, and safe to call from the
// connection's own write-error path.
func (b *Broadcaster) OnDisconnect(conn *Conn) {
	b.registry.Deregister(conn)
	conn.stop()
	slog.Debug("streaming client disconnected", "connection_id", conn.ID().String(), "active", b.registry.Len())
}

// BroadcastAll serializes one fresh envelope and enqueues it to every
// registered connection. Used by the update trigger so score changes reach
// clients without waiting for their individual tickers.
func (b *Broadcaster) BroadcastAll(ctx context.Context) {
	payload, err := b.buildEnvelope(ctx)
	if err != nil {
		metrics.StreamSkippedTicks.Inc()
		slog.Warn("broadcast skipped, snapshot unavailable", "error", err)
		return
	}
	conns := b.registry.SnapshotAll()
	metrics.BroadcastFanoutSize.Observe(float64(len(conns)))
	for _, conn := range conns {
		conn.enqueue(payload)
	}
}

// Stop disconnects every registered client. Blocks until all writer
// goroutines have exited.
func (b *Broadcaster) Stop() {
	conns := b.registry.SnapshotAll()
	slog.Info("broadcaster shutting down", "connections", len(conns))
	for _, conn := range conns {
		b.OnDisconnect(conn)
	}
}

// tickLoop drives one connection's periodic pushes. It terminates itself
// when the connection leaves the registry, so teardown never has to chase
// individual timers.
func (b *Broadcaster) tickLoop(conn *Conn) {
	ticker := b.clock.NewTicker(b.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if !b.registry.Contains(conn) {
				return
			}
			b.pushSnapshot(conn)
		case <-conn.Done():
			return
		}
	}
}

// pushSnapshot builds a fresh envelope and enqueues it. A failed ledger
// read skips this push only; the connection stays registered and the next
// tick retries.
func (b *Broadcaster) pushSnapshot(conn *Conn) {
	payload, err := b.buildEnvelope(context.Background())
	if err != nil {
		metrics.StreamSkippedTicks.Inc()
		slog.Warn("push skipped, snapshot unavailable", "connection_id", conn.ID().String(), "error", err)
		return
	}
	conn.enqueue(payload)
}

func (b *Broadcaster) buildEnvelope(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.storeTimeout)
	defer cancel()

	snapshot, err := b.source.Snapshot(ctx, b.snapshotLimit)
	if err != nil {
		return nil, err
	}

	envelope := domain.Envelope{
		Type:      domain.EnvelopeTypeLeaderboardUpdate,
		Timestamp: b.clock.Now().UTC(),
		Data:      snapshot.Standings,
		Contest:   snapshot.Contest,
	}
	return json.Marshal(envelope)
}
