package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/domain"
)

// fakeSource serves a fixed snapshot and can be switched into an error state.
type fakeSource struct {
	mu       sync.Mutex
	snapshot *domain.LeaderboardSnapshot
	err      error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		snapshot: &domain.LeaderboardSnapshot{
			Standings: []domain.StandingEntry{
				{Rank: 1, ExternalID: "GF-AAAAAA", CurrentPoints: 30, FirstReachedCurrentPointsAt: time.Unix(1700000000, 0).UTC()},
				{Rank: 2, ExternalID: "GF-BBBBBB", CurrentPoints: 10, FirstReachedCurrentPointsAt: time.Unix(1700000100, 0).UTC()},
			},
			Contest: domain.ContestStatus{Status: domain.ContestStatusLive},
		},
	}
}

func (f *fakeSource) Standings(_ context.Context, _ int) ([]domain.StandingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot.Standings, nil
}

func (f *fakeSource) Snapshot(_ context.Context, _ int) (*domain.LeaderboardSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func (f *fakeSource) setError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// fakeSink records frames in memory. failWrites makes every write fail,
// blockCh (when set) stalls writes until the channel is closed.
type fakeSink struct {
	mu         sync.Mutex
	frames     [][]byte
	failWrites bool
	closed     bool
	blockCh    chan struct{}
}

func (s *fakeSink) WriteFrame(payload []byte) error {
	if s.blockCh != nil {
		<-s.blockCh
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("client gone")
	}
	s.frames = append(s.frames, append([]byte(nil), payload...))
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *fakeSink) lastFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *fakeSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestBroadcaster(t *testing.T, source *fakeSource, tickInterval time.Duration) (*Broadcaster, *Registry) {
	t.Helper()
	registry := NewRegistry()
	broadcaster := NewBroadcaster(source, registry, clockwork.NewRealClock(), tickInterval, time.Second, 100)
	t.Cleanup(broadcaster.Stop)
	return broadcaster, registry
}

func waitFor(cond func() bool) bool {
	for range 250 {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

func TestBroadcaster_ConnectDeliversImmediateSnapshot(t *testing.T) {
	source := newFakeSource()
	// Tick interval far beyond the test runtime: any frame must come from
	// the connect-time push.
	broadcaster, registry := newTestBroadcaster(t, source, time.Hour)

	sink := &fakeSink{}
	conn := broadcaster.Connect(sink)
	require.True(t, registry.Contains(conn))
	require.True(t, waitFor(func() bool { return sink.frameCount() == 1 }))

	var envelope domain.Envelope
	require.NoError(t, json.Unmarshal(sink.lastFrame(), &envelope))
	assert.Equal(t, domain.EnvelopeTypeLeaderboardUpdate, envelope.Type)
	assert.False(t, envelope.Timestamp.IsZero())
	assert.Equal(t, domain.ContestStatusLive, envelope.Contest.Status)
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "GF-AAAAAA", envelope.Data[0].ExternalID)
	assert.Equal(t, 1, envelope.Data[0].Rank)
	assert.Equal(t, 30, envelope.Data[0].CurrentPoints)
}

func TestBroadcaster_PushesPeriodically(t *testing.T) {
	source := newFakeSource()
	broadcaster, _ := newTestBroadcaster(t, source, 5*time.Millisecond)

	sink := &fakeSink{}
	broadcaster.Connect(sink)

	assert.True(t, waitFor(func() bool { return sink.frameCount() >= 3 }))
}

func TestBroadcaster_StoreErrorSkipsPushKeepsConnection(t *testing.T) {
	source := newFakeSource()
	source.setError(errors.New("ledger unavailable"))
	broadcaster, registry := newTestBroadcaster(t, source, 5*time.Millisecond)

	sink := &fakeSink{}
	conn := broadcaster.Connect(sink)

	// Several tick periods with the source failing: no frames, still registered.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, sink.frameCount())
	assert.True(t, registry.Contains(conn))

	// Recovery: pushes resume on the next tick without reconnecting.
	source.setError(nil)
	assert.True(t, waitFor(func() bool { return sink.frameCount() >= 1 }))
}

func TestBroadcaster_WriteFailureEvictsConnection(t *testing.T) {
	source := newFakeSource()
	broadcaster, registry := newTestBroadcaster(t, source, time.Hour)

	sink := &fakeSink{failWrites: true}
	conn := broadcaster.Connect(sink)

	// The connect-time push fails, which must tear the connection down.
	require.True(t, waitFor(func() bool { return !registry.Contains(conn) }))
	assert.True(t, waitFor(sink.isClosed))
}

func TestBroadcaster_FanOutIsolatesFailingClient(t *testing.T) {
	source := newFakeSource()
	broadcaster, registry := newTestBroadcaster(t, source, time.Hour)

	healthy := make([]*fakeSink, 9)
	for i := range healthy {
		healthy[i] = &fakeSink{}
		broadcaster.Connect(healthy[i])
	}
	failing := &fakeSink{failWrites: true}
	failingConn := broadcaster.Connect(failing)

	// Let connect-time pushes settle, then fan out once more.
	require.True(t, waitFor(func() bool { return !registry.Contains(failingConn) }))
	for _, sink := range healthy {
		require.True(t, waitFor(func() bool { return sink.frameCount() == 1 }))
	}

	broadcaster.BroadcastAll(context.Background())

	for _, sink := range healthy {
		assert.True(t, waitFor(func() bool { return sink.frameCount() == 2 }))
	}
	assert.Equal(t, 9, registry.Len())
}

func TestBroadcaster_NoPushAfterDisconnect(t *testing.T) {
	source := newFakeSource()
	broadcaster, registry := newTestBroadcaster(t, source, time.Millisecond)

	sink := &fakeSink{}
	conn := broadcaster.Connect(sink)
	require.True(t, waitFor(func() bool { return sink.frameCount() >= 1 }))

	broadcaster.OnDisconnect(conn)
	assert.False(t, registry.Contains(conn))
	assert.True(t, sink.isClosed())

	// Ticker goroutines may still be draining; frame count must not move.
	count := sink.frameCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, count, sink.frameCount())
}

func TestBroadcaster_OnDisconnectIsIdempotent(t *testing.T) {
	source := newFakeSource()
	broadcaster, registry := newTestBroadcaster(t, source, time.Hour)

	sink := &fakeSink{}
	conn := broadcaster.Connect(sink)

	broadcaster.OnDisconnect(conn)
	broadcaster.OnDisconnect(conn)
	assert.Equal(t, 0, registry.Len())
}

func TestBroadcaster_SlowClientDropsFramesWithoutBlocking(t *testing.T) {
	source := newFakeSource()
	broadcaster, _ := newTestBroadcaster(t, source, time.Hour)

	blockCh := make(chan struct{})
	sink := &fakeSink{blockCh: blockCh}
	conn := broadcaster.Connect(sink)

	// Writer is stalled inside its first write; flood the queue. Enqueue must
	// never block even with the buffer full.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			broadcaster.pushSnapshot(conn)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a slow client")
	}

	close(blockCh)
	// The stalled frame plus at most a buffer's worth survive; the rest were
	// dropped as stale.
	assert.True(t, waitFor(func() bool { return sink.frameCount() >= 1 }))
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, sink.frameCount(), envelopeBufferSize+1)
}

func TestBroadcaster_BroadcastAllReachesEveryConnection(t *testing.T) {
	source := newFakeSource()
	broadcaster, _ := newTestBroadcaster(t, source, time.Hour)

	sinks := make([]*fakeSink, 5)
	for i := range sinks {
		sinks[i] = &fakeSink{}
		broadcaster.Connect(sinks[i])
	}
	for _, sink := range sinks {
		require.True(t, waitFor(func() bool { return sink.frameCount() == 1 }))
	}

	broadcaster.BroadcastAll(context.Background())

	for _, sink := range sinks {
		assert.True(t, waitFor(func() bool { return sink.frameCount() == 2 }))
	}
}

func TestBroadcaster_StopClosesAllConnections(t *testing.T) {
	source := newFakeSource()
	registry := NewRegistry()
	broadcaster := NewBroadcaster(source, registry, clockwork.NewRealClock(), time.Hour, time.Second, 100)

	sinks := make([]*fakeSink, 3)
	for i := range sinks {
		sinks[i] = &fakeSink{}
		broadcaster.Connect(sinks[i])
	}

	broadcaster.Stop()

	assert.Equal(t, 0, registry.Len())
	for _, sink := range sinks {
		assert.True(t, sink.isClosed())
	}
}

func TestBroadcaster_ConcurrentConnectDisconnect(t *testing.T) {
	source := newFakeSource()
	broadcaster, registry := newTestBroadcaster(t, source, time.Millisecond)

	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := broadcaster.Connect(&fakeSink{})
			time.Sleep(5 * time.Millisecond)
			broadcaster.OnDisconnect(conn)
		}()
	}
	for range 10 {
		broadcaster.BroadcastAll(context.Background())
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Len())
}
