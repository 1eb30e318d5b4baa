package broadcast

import (
	"sync"
	"time"

	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// envelopeBufferSize is deliberately small: every envelope is a full
// replacement of the previous one, so a client that cannot keep up should
// see old frames dropped, not queued.
const envelopeBufferSize = 4

// Sink is the transport-specific write end of one client connection.
// WriteFrame delivers a single serialized envelope; it is only ever called
// from the connection's writer goroutine, never concurrently.
type Sink interface {
	WriteFrame(payload []byte) error
	Close() error
}

// Conn is one registered streaming client. It owns a dedicated writer
// goroutine so a stalled client can never block the broadcaster or any
// other connection.
type Conn struct {
	id       uuid.UUID
	sink     Sink
	clock    clockwork.Clock
	sendCh    chan []byte
	done      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
	openedAt  time.Time

	// onWriteError is invoked from the writer goroutine after it has exited,
	// so the callback may safely call stop (the WaitGroup is already drained).
	onWriteError func(*Conn)
}

// NewConn wraps a transport sink and starts its writer goroutine.
// onWriteError is called once if a frame write fails; a failed write is
// treated as a disconnect.
func NewConn(sink Sink, clock clockwork.Clock, onWriteError func(*Conn)) *Conn {
	c := &Conn{
		id:           uuid.New(),
		sink:         sink,
		clock:        clock,
		sendCh:       make(chan []byte, envelopeBufferSize),
		done:         make(chan struct{}),
		openedAt:     clock.Now(),
		onWriteError: onWriteError,
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// ID identifies the connection in logs.
func (c *Conn) ID() uuid.UUID { return c.id }

// Done is closed when the connection has been torn down.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) run() {
	var failed bool
	// Deferred LIFO: wg.Done runs first, then the error callback. The
	// callback ends up in OnDisconnect, which waits on the WaitGroup, so
	// this ordering is what keeps teardown from deadlocking.
	defer func() {
		if failed && c.onWriteError != nil {
			c.onWriteError(c)
		}
	}()
	defer c.wg.Done()

	for {
		select {
		case payload := <-c.sendCh:
			if err := c.sink.WriteFrame(payload); err != nil {
				metrics.StreamWriteFailures.Inc()
				failed = true
				return
			}
			metrics.StreamEnvelopesSent.Inc()
		case <-c.done:
			return
		}
	}
}

// enqueue hands a serialized envelope to the writer goroutine without
// blocking. If the buffer is full the frame is dropped: the next tick
// carries a complete snapshot anyway.
func (c *Conn) enqueue(payload []byte) {
	select {
	case <-c.done:
	case c.sendCh <- payload:
	default:
		metrics.StreamDroppedTicks.Inc()
	}
}

// stop shuts the connection down and blocks until the writer goroutine has
// exited. The sink is closed only after that: sinks like the WebSocket one
// write a close frame, and the transport allows a single writer at a time,
// so Close must never overlap an in-flight WriteFrame. Safe to call
// multiple times and from the writer's own error path.
func (c *Conn) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
	c.closeOnce.Do(func() {
		_ = c.sink.Close()
		metrics.StreamConnectionDuration.Observe(c.clock.Since(c.openedAt).Seconds())
	})
}
