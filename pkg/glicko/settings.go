package glicko

import "fmt"

// Defaults defined or recommended in Glickman's paper.
const (
	// DefaultStartRating, DefaultStartDeviation, and DefaultStartVolatility
	// form the default start rating from "Step 1." of the paper.
	DefaultStartRating     = 1500.0
	DefaultStartDeviation  = 350.0
	DefaultStartVolatility = 0.06

	// DefaultVolatilityChange (tau) sits in the middle of the reasonable
	// range described in the paper (0.3 to 1.2). Fine-tune per application.
	DefaultVolatilityChange = 0.75

	// DefaultConvergenceTolerance is the cutoff recommended by "Step 5.1.".
	DefaultConvergenceTolerance = 0.000_001
)

// maxIterations caps the volatility converging loop so a misconfigured
// tolerance surfaces as ErrConvergence instead of an unbounded loop.
const maxIterations = 10_000

// Settings holds the tuning parameters for Glicko-2 computations.
// It is an immutable value passed explicitly to every computation, so
// multiple independent rating pools with different tuning can coexist.
type Settings struct {
	startRating          Rating
	volatilityChange     float64
	convergenceTolerance float64
}

// SettingsOption applies a configuration option to Settings.
type SettingsOption func(*Settings)

// WithStartRating sets the rating assigned to unrated players.
func WithStartRating(r Rating) SettingsOption {
	return func(s *Settings) {
		s.startRating = r
	}
}

// WithVolatilityChange sets tau, the volatility change constraint.
// Reasonable choices are between 0.3 and 1.2; smaller values prevent
// ratings from changing too much after improbable results.
func WithVolatilityChange(tau float64) SettingsOption {
	return func(s *Settings) {
		s.volatilityChange = tau
	}
}

// WithConvergenceTolerance sets the cutoff for the volatility converging
// loop. Higher values trade accuracy for fewer iterations.
func WithConvergenceTolerance(tolerance float64) SettingsOption {
	return func(s *Settings) {
		s.convergenceTolerance = tolerance
	}
}

// NewSettings builds Settings from defaults and options. Invalid inputs are
// rejected here, at construction time, rather than at computation time.
func NewSettings(opts ...SettingsOption) (Settings, error) {
	s := Settings{
		startRating: Rating{
			Rating:     DefaultStartRating,
			Deviation:  DefaultStartDeviation,
			Volatility: DefaultStartVolatility,
		},
		volatilityChange:     DefaultVolatilityChange,
		convergenceTolerance: DefaultConvergenceTolerance,
	}

	for _, opt := range opts {
		opt(&s)
	}

	if err := s.startRating.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%w: start rating: %w", ErrInvalidSettings, err)
	}
	if !(s.volatilityChange > 0) {
		return Settings{}, fmt.Errorf("%w: volatility change %v is not > 0", ErrInvalidSettings, s.volatilityChange)
	}
	if !(s.convergenceTolerance > 0) {
		return Settings{}, fmt.Errorf("%w: convergence tolerance %v is not > 0", ErrInvalidSettings, s.convergenceTolerance)
	}

	return s, nil
}

// DefaultSettings returns the paper-default settings.
func DefaultSettings() Settings {
	s, err := NewSettings()
	if err != nil {
		// Defaults are statically valid.
		panic(err)
	}
	return s
}

// StartRating is the rating assigned to unrated players.
func (s Settings) StartRating() Rating {
	return s.startRating
}

// VolatilityChange is tau, the volatility change constraint.
func (s Settings) VolatilityChange() float64 {
	return s.volatilityChange
}

// ConvergenceTolerance is the cutoff for the volatility converging loop.
func (s Settings) ConvergenceTolerance() float64 {
	return s.convergenceTolerance
}
