package engine

import "fmt"

// Outcome is a match result from the first player's perspective.
type Outcome int

// Match outcomes.
const (
	// Win means the first player won.
	Win Outcome = iota
	// Draw means the players drew.
	Draw
	// Loss means the second player won.
	Loss
)

// Score maps the outcome to the Glicko-2 score for the first player:
// 1.0 for a win, 0.5 for a draw, 0.0 for a loss.
func (o Outcome) Score() float64 {
	switch o {
	case Win:
		return 1.0
	case Draw:
		return 0.5
	default:
		return 0.0
	}
}

// Invert returns the outcome from the second player's perspective.
func (o Outcome) Invert() Outcome {
	switch o {
	case Win:
		return Loss
	case Loss:
		return Win
	default:
		return Draw
	}
}

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	case Loss:
		return "loss"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseOutcome parses "win", "draw", or "loss".
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "win":
		return Win, nil
	case "draw":
		return Draw, nil
	case "loss":
		return Loss, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOutcome, s)
	}
}
