package broadcast

import (
	"sync"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/metrics"
)

// Registry is the authoritative set of live streaming connections.
// Membership is the single source of truth for "should this client still
// receive pushes": a per-connection ticker re-checks Contains before every
// push and terminates itself once the connection is gone.
type Registry struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[*Conn]struct{})}
}

// Register adds a connection. Registering the same connection twice is a
// no-op.
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; ok {
		return
	}
	r.conns[c] = struct{}{}
	metrics.StreamActiveConnections.Set(float64(len(r.conns)))
}

// Deregister removes a connection. Removing an absent connection is a
// no-op, so both the handler exit path and the write-failure path may
// call it without coordination.
func (r *Registry) Deregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return
	}
	delete(r.conns, c)
	metrics.StreamActiveConnections.Set(float64(len(r.conns)))
}

// Contains reports whether the connection is still registered.
func (r *Registry) Contains(c *Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[c]
	return ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// SnapshotAll copies the current membership so callers can fan out without
// holding the lock while serializing or writing.
func (r *Registry) SnapshotAll() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}
