package broadcast

import (
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func newIdleConn() *Conn {
	return NewConn(&fakeSink{}, clockwork.NewRealClock(), nil)
}

func TestRegistry_RegisterAndContains(t *testing.T) {
	registry := NewRegistry()
	conn := newIdleConn()
	defer conn.stop()

	assert.False(t, registry.Contains(conn))

	registry.Register(conn)
	assert.True(t, registry.Contains(conn))
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	conn := newIdleConn()
	defer conn.stop()

	registry.Register(conn)
	registry.Register(conn)

	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_DeregisterIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	conn := newIdleConn()
	defer conn.stop()

	registry.Register(conn)
	registry.Deregister(conn)
	assert.False(t, registry.Contains(conn))
	assert.Equal(t, 0, registry.Len())

	// Second removal and removal of a never-registered conn are no-ops.
	registry.Deregister(conn)
	registry.Deregister(newIdleConn())
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_SnapshotAllIsACopy(t *testing.T) {
	registry := NewRegistry()
	first := newIdleConn()
	second := newIdleConn()
	defer first.stop()
	defer second.stop()

	registry.Register(first)
	registry.Register(second)

	conns := registry.SnapshotAll()
	assert.Len(t, conns, 2)

	// Mutating membership after the snapshot must not affect the copy.
	registry.Deregister(first)
	assert.Len(t, conns, 2)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := newIdleConn()
			defer conn.stop()
			registry.Register(conn)
			registry.Contains(conn)
			registry.SnapshotAll()
			registry.Deregister(conn)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Len())
}
