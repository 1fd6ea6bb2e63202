package glicko

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidRating marks a rating with a non-positive deviation or
	// volatility, or non-finite fields.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidSettings marks settings rejected at construction time.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrConvergence marks a volatility converging loop that exceeded its
	// iteration cap. This should be unreachable for valid, finite inputs and
	// indicates a library defect or an unreasonably low tolerance.
	ErrConvergence = errors.New("volatility computation did not converge")
)
