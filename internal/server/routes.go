package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Streaming transports
	s.echo.GET("/api/sse", s.handleStream)
	s.echo.GET("/ws/leaderboard", s.handleWebSocket)

	// Public REST API
	s.echo.GET("/api/leaderboard", s.handleLeaderboard)
	s.echo.GET("/api/leaderboard/search", s.handleSearch)
	s.echo.GET("/api/contest/status", s.handleContestStatus)
	s.echo.GET("/api/contestants/validate", s.handleValidateContestant)
	s.echo.GET("/api/contestants/stats", s.handleContestantStats)
	s.echo.GET("/api/contestants/recent", s.handleRecentContestants)
}
