package engine

import "errors"

// Sentinel kinds for engine errors.
var (
	// ErrUnknownPlayer marks an operation that referenced a player id that
	// was never registered with this engine. Callers should treat this as a
	// usage bug; it is always surfaced and never silently ignored.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrSamePlayer marks a result registered between a player and themselves.
	ErrSamePlayer = errors.New("players in a result must be distinct")

	// ErrUnknownOutcome marks an unrecognized match outcome string.
	ErrUnknownOutcome = errors.New("unknown match outcome")

	// ErrInvalidLimit marks a non-positive leaderboard limit.
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)

// isUnknownPlayer reports whether err is an unknown-player error.
func isUnknownPlayer(err error) bool {
	return errors.Is(err, ErrUnknownPlayer)
}
