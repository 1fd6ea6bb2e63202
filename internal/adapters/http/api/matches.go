// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gpluscb/instant-glicko-2/internal/domain/dedupe"
	"github.com/gpluscb/instant-glicko-2/internal/domain/model"
	"github.com/gpluscb/instant-glicko-2/pkg/engine"
	"github.com/gpluscb/instant-glicko-2/pkg/metrics"
)

// MatchDependencies defines the interface for match submission.
type MatchDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, e model.MatchEvent) bool
}

// MatchesHandler handles match submission requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// HandlePostMatch handles POST /matches requests.
func (h *MatchesHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Clients may omit match_id; we mint one so the ack is still traceable.
	// Server-minted ids are unique, so they skip the duplicate path below.
	if req.MatchID == "" {
		req.MatchID = uuid.NewString()
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.MatchID) {
		metrics.RecordMatchDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", MatchID: req.MatchID, Duplicate: true})
		return
	}

	outcome, _ := engine.ParseOutcome(req.Outcome)
	ts := time.Now()
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}

	event := model.MatchEvent{
		MatchID: req.MatchID,
		PlayerA: engine.PlayerID(req.PlayerA),
		PlayerB: engine.PlayerID(req.PlayerB),
		Outcome: outcome,
		TS:      ts,
	}

	// Try to enqueue for async processing
	if ok := h.deps.Enqueue(r.Context(), event); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.MatchID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", MatchID: req.MatchID, Duplicate: false})
}
