// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gpluscb/instant-glicko-2/pkg/engine"
	"github.com/gpluscb/instant-glicko-2/pkg/glicko"
)

// PlayerDependencies defines the interface for player registration.
type PlayerDependencies interface {
	RegisterPlayer(ctx context.Context, start glicko.Rating) (engine.PlayerID, error)
}

// PlayersHandler handles player registration requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandlePostPlayer handles POST /players requests. The body is optional;
// an empty or zero body registers a player at the configured start rating.
func (h *PlayersHandler) HandlePostPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_player"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := glicko.Rating{
		Rating:     req.Rating,
		Deviation:  req.Deviation,
		Volatility: req.Volatility,
	}

	id, err := h.deps.RegisterPlayer(r.Context(), start)
	if err != nil {
		if errors.Is(err, glicko.ErrInvalidRating) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusCreated, playerResponse{PlayerID: uint64(id)})
}
