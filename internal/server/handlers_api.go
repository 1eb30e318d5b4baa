package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/Damola-Oyin/GasFeelContentChallenge/internal/errors"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
	minSearchIDLength  = 5
)

// handleLeaderboard returns the same snapshot a streaming client would
// receive, for clients that poll instead of subscribing.
func (s *Server) handleLeaderboard(c echo.Context) error {
	snapshot, err := s.standings.Snapshot(c.Request().Context(), s.config.SnapshotLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"leaderboard": snapshot.Standings,
		"contest":     snapshot.Contest,
		"timestamp":   time.Now().UTC(),
	})
}

// handleSearch locates a contestant anywhere on the full leaderboard.
func (s *Server) handleSearch(c echo.Context) error {
	externalID := strings.TrimSpace(c.QueryParam("id"))
	if len(externalID) < minSearchIDLength {
		return apperrors.ValidationError("id must be at least 5 characters").WithContext("id", externalID)
	}

	result, err := s.standings.Search(c.Request().Context(), externalID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// handleValidateContestant confirms an ID exists before the client uses it
// for search; matching is case-insensitive and the response carries the
// stored casing.
func (s *Server) handleValidateContestant(c echo.Context) error {
	externalID := strings.TrimSpace(c.QueryParam("id"))
	if len(externalID) < minSearchIDLength {
		return apperrors.ValidationError("id must be at least 5 characters").WithContext("id", externalID)
	}

	contestant, err := s.standings.Validate(c.Request().Context(), externalID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contestant)
}

func (s *Server) handleContestStatus(c echo.Context) error {
	contest, err := s.standings.Contest(c.Request().Context())
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	hasPassedDeadline := contest.EndAt != nil && now.After(*contest.EndAt)
	return c.JSON(http.StatusOK, map[string]any{
		"status":                contest.Status,
		"end_at":                contest.EndAt,
		"freeze_public_display": contest.FreezePublicDisplay,
		"now":                   now,
		"has_passed_deadline":   hasPassedDeadline,
	})
}

func (s *Server) handleContestantStats(c echo.Context) error {
	stats, err := s.standings.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleRecentContestants(c echo.Context) error {
	limit := defaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			return apperrors.ValidationError("limit must be a positive integer").WithContext("limit", raw)
		}
		limit = min(parsed, maxRecentLimit)
	}

	recent, err := s.standings.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"contestants": recent})
}

func parsePositiveInt(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", v)
	}
	return v, nil
}
