package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/Damola-Oyin/GasFeelContentChallenge/internal/errors"
	"github.com/Damola-Oyin/GasFeelContentChallenge/internal/metrics"
)

const wsWriteDeadline = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Public leaderboard, embedded on external pages
	},
}

var errSinkClosed = errors.New("sink closed")

// sseSink frames envelopes as server-sent events on an open HTTP response.
type sseSink struct {
	mu       sync.Mutex
	response *echo.Response
	closed   bool
}

func (s *sseSink) WriteFrame(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSinkClosed
	}
	if _, err := fmt.Fprintf(s.response, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.response.Flush()
	return nil
}

// Close only marks the sink dead; the HTTP connection itself belongs to the
// handler and closes when the handler returns.
func (s *sseSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// wsSink frames envelopes as WebSocket text messages.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) WriteFrame(payload []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSink) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
	return s.conn.Close()
}

// handleStream is the SSE endpoint. The client receives an immediate
// snapshot followed by periodic pushes; the handler blocks until the client
// goes away or the server shuts down.
func (s *Server) handleStream(c echo.Context) error {
	ip := c.RealIP()
	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.StreamRejectedConnections.WithLabelValues(string(reason)).Inc()
		return apperrors.TooManyRequestsError("stream capacity reached").WithContext("reason", string(reason))
	}
	defer s.limits.Release(ip)

	response := c.Response()
	header := response.Header()
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	response.WriteHeader(http.StatusOK)
	response.Flush()

	conn := s.broadcaster.Connect(&sseSink{response: response})
	metrics.StreamConnectionsTotal.WithLabelValues("sse").Inc()

	// Block until the client disconnects or the connection is torn down
	// server-side (write failure, shutdown).
	select {
	case <-c.Request().Context().Done():
	case <-conn.Done():
	}
	s.broadcaster.OnDisconnect(conn)
	return nil
}

// handleWebSocket serves the same envelope stream over a WebSocket.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()
	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.StreamRejectedConnections.WithLabelValues(string(reason)).Inc()
		return apperrors.TooManyRequestsError("stream capacity reached").WithContext("reason", string(reason))
	}
	defer s.limits.Release(ip)

	wsConn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return nil
	}

	conn := s.broadcaster.Connect(&wsSink{conn: wsConn})
	metrics.StreamConnectionsTotal.WithLabelValues("websocket").Inc()

	// Read pump: clients never send data, but reading is what detects
	// disconnects and close frames.
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			break
		}
	}

	s.broadcaster.OnDisconnect(conn)
	return nil
}
