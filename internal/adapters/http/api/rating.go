// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gpluscb/instant-glicko-2/pkg/engine"
	"github.com/gpluscb/instant-glicko-2/pkg/glicko"
)

// RatingDependencies defines the interface for rating queries.
type RatingDependencies interface {
	PlayerRating(ctx context.Context, id engine.PlayerID) (glicko.Rating, error)
}

// RatingHandler handles rating queries.
type RatingHandler struct {
	deps RatingDependencies
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(deps RatingDependencies) *RatingHandler {
	return &RatingHandler{deps: deps}
}

// HandleGetRating handles GET /rating/{player_id} requests.
func (h *RatingHandler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rating"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /rating/
	path := strings.TrimPrefix(r.URL.Path, "/rating/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	id, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rating, err := h.deps.PlayerRating(r.Context(), engine.PlayerID(id))
	if err != nil {
		if errors.Is(err, engine.ErrUnknownPlayer) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, ratingResponse{
		PlayerID:   id,
		Rating:     rating.Rating,
		Deviation:  rating.Deviation,
		Volatility: rating.Volatility,
	})
}
