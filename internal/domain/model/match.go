// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/gpluscb/instant-glicko-2/pkg/engine"
)

// MatchEvent represents a match result submitted by clients.
// Fields mirror the JSON schema for /matches.
type MatchEvent struct {
	MatchID string          // unique id for idempotency
	PlayerA engine.PlayerID // first player
	PlayerB engine.PlayerID // second player
	Outcome engine.Outcome  // result from the first player's perspective
	TS      time.Time       // match timestamp
}
