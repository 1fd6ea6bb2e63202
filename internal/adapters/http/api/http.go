// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gpluscb/instant-glicko-2/internal/domain/dedupe"
	"github.com/gpluscb/instant-glicko-2/internal/domain/model"
	"github.com/gpluscb/instant-glicko-2/pkg/engine"
	"github.com/gpluscb/instant-glicko-2/pkg/glicko"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a match event for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.MatchEvent) bool

	// RegisterPlayer creates a new player and returns its id.
	RegisterPlayer(ctx context.Context, start glicko.Rating) (engine.PlayerID, error)

	// PlayerRating returns the player's current rating, including deviation
	// growth for idle time.
	PlayerRating(ctx context.Context, id engine.PlayerID) (glicko.Rating, error)

	// TopN exposes leaderboard data.
	TopN(ctx context.Context, n int) ([]Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = engine.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	playersHandler     *PlayersHandler
	matchesHandler     *MatchesHandler
	ratingHandler      *RatingHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		playersHandler:     NewPlayersHandler(deps),
		matchesHandler:     NewMatchesHandler(deps),
		ratingHandler:      NewRatingHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/players", MetricsMiddleware(s.playersHandler.HandlePostPlayer, "players"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandlePostMatch, "matches"))
	mux.HandleFunc("/rating/", MetricsMiddleware(s.ratingHandler.HandleGetRating, "rating"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

// playerRequest mirrors the JSON schema for POST /players. All fields are
// optional; a zero rating means "start at the configured defaults".
type playerRequest struct {
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

type playerResponse struct {
	PlayerID uint64 `json:"player_id"`
}

// matchRequest mirrors the JSON schema for POST /matches.
type matchRequest struct {
	MatchID string `json:"match_id"`
	PlayerA uint64 `json:"player_a"`
	PlayerB uint64 `json:"player_b"`
	Outcome string `json:"outcome"`
	TS      string `json:"ts"`
}

func (m matchRequest) validate() error {
	switch {
	case m.PlayerA == 0:
		return errors.New("missing player_a")
	case m.PlayerB == 0:
		return errors.New("missing player_b")
	case m.PlayerA == m.PlayerB:
		return errors.New("player_a and player_b must differ")
	case strings.TrimSpace(m.Outcome) == "":
		return errors.New("missing outcome")
	}
	if _, err := engine.ParseOutcome(m.Outcome); err != nil {
		return errors.New("invalid outcome; must be win, draw, or loss")
	}
	if m.TS != "" {
		if _, err := time.Parse(time.RFC3339, m.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// ratingResponse is the read shape for GET /rating/{player_id}.
type ratingResponse struct {
	PlayerID   uint64  `json:"player_id"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

type ackResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"match_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
