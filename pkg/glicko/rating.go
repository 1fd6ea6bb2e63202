// Package glicko implements the Glicko-2 rating algorithm with support for
// fractional rating periods.
//
// Variables follow the conventions of Glickman's paper
// (http://www.glicko.net/glicko/glicko2.pdf):
//   - Mu: a rating converted to the internal Glicko-2 scale.
//   - Phi: a rating deviation converted to the internal Glicko-2 scale.
//   - Sigma: the rating volatility.
//   - Tau: the volatility change constraint (the "system constant").
//
// The package is pure and stateless; callers that manage their own timing
// can use Update directly. The timed engine lives in pkg/engine.
package glicko

import (
	"fmt"
	"math"
)

// Constants for converting between the public Glicko scale and the internal
// Glicko-2 scale. See "Step 2." and "Step 8." in Glickman's paper.
const (
	// ScalingRatio converts deviations and rating offsets between scales.
	ScalingRatio = 173.7178

	// RatingOrigin is the public-scale rating that maps to mu = 0.
	RatingOrigin = 1500.0
)

// Rating is a player's strength estimate on the public 1500-centered scale.
type Rating struct {
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// Validate reports whether the rating is usable for Glicko-2 arithmetic.
// Deviation and volatility must be strictly positive and all fields finite.
func (r Rating) Validate() error {
	switch {
	case math.IsNaN(r.Rating) || math.IsInf(r.Rating, 0):
		return fmt.Errorf("%w: rating is not finite", ErrInvalidRating)
	case !(r.Deviation > 0) || math.IsInf(r.Deviation, 0):
		return fmt.Errorf("%w: deviation %v is not > 0", ErrInvalidRating, r.Deviation)
	case !(r.Volatility > 0) || math.IsInf(r.Volatility, 0):
		return fmt.Errorf("%w: volatility %v is not > 0", ErrInvalidRating, r.Volatility)
	}
	return nil
}

// IsZero reports whether r is the zero value, used by callers to mean
// "substitute a default".
func (r Rating) IsZero() bool {
	return r == Rating{}
}

// Internal converts r to the internal Glicko-2 scale.
func (r Rating) Internal() InternalRating {
	return InternalRating{
		Mu:    (r.Rating - RatingOrigin) / ScalingRatio,
		Phi:   r.Deviation / ScalingRatio,
		Sigma: r.Volatility,
	}
}

// InternalRating is a rating on the zero-centered internal Glicko-2 scale.
// All algorithm arithmetic happens on this representation.
type InternalRating struct {
	Mu    float64 `json:"mu"`
	Phi   float64 `json:"phi"`
	Sigma float64 `json:"sigma"`
}

// Public converts ir back to the public 1500-centered scale.
func (ir InternalRating) Public() Rating {
	return Rating{
		Rating:     ir.Mu*ScalingRatio + RatingOrigin,
		Deviation:  ir.Phi * ScalingRatio,
		Volatility: ir.Sigma,
	}
}

// GameResult is a single match result as it pertains to one player: the
// opponent's rating on the internal scale and the player's score.
// Ephemeral; it exists only for the duration of one Update call.
type GameResult struct {
	Opponent InternalRating
	Score    float64
}

// NewGameResult builds a GameResult from a public-scale opponent rating.
// Score should be 1.0 for a win, 0.5 for a draw, and 0.0 for a loss.
func NewGameResult(opponent Rating, score float64) GameResult {
	return GameResult{Opponent: opponent.Internal(), Score: score}
}
