// Package engine maintains continuously updated Glicko-2 ratings.
//
// Unlike the original period-based formulation, the engine tracks the time
// of each player's last update and applies the algorithm with a fractional
// elapsed-period count whenever a result or a rating query arrives. Every
// result is treated as its own minimal rating period, trading the batched
// semantics of the paper for instant feedback; the deviation growth from
// idle time is preserved exactly.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gpluscb/instant-glicko-2/pkg/glicko"
	"github.com/gpluscb/instant-glicko-2/pkg/metrics"
)

// DefaultPeriodDuration is the wall-clock length of one rating period.
const DefaultPeriodDuration = 24 * time.Hour

// Entry is one leaderboard row, on the public rating scale.
type Entry struct {
	Rank       int     `json:"rank"`
	PlayerID   uint64  `json:"player_id"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// Engine tracks player ratings and updates them as results arrive.
// Construct with New; the zero value is not usable.
//
// All state lives in the Store; the engine itself is an immutable bundle of
// settings, clock, and store, and its methods are safe for concurrent use.
type Engine struct {
	settings       glicko.Settings
	periodDuration time.Duration
	clock          func() time.Time
	store          Store
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPeriodDuration sets the wall-clock length of one rating period.
func WithPeriodDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.periodDuration = d
		}
	}
}

// WithClock sets the time source, for determinism in tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithStore sets the player record store.
func WithStore(store Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// New creates an Engine with the given settings. By default it uses the
// wall clock, a 24h rating period, and a fresh in-memory store.
func New(settings glicko.Settings, opts ...Option) *Engine {
	e := &Engine{
		settings:       settings,
		periodDuration: DefaultPeriodDuration,
		clock:          time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		e.store = NewMemStore()
	}

	return e
}

// Settings returns the engine's Glicko-2 settings.
func (e *Engine) Settings() glicko.Settings {
	return e.settings
}

// PeriodDuration returns the wall-clock length of one rating period.
func (e *Engine) PeriodDuration() time.Duration {
	return e.periodDuration
}

// RegisterPlayer registers a new player and returns their id. A zero-value
// start rating means "use the settings' start rating"; any other start
// rating must be valid.
func (e *Engine) RegisterPlayer(ctx context.Context, start glicko.Rating) (PlayerID, error) {
	if start.IsZero() {
		start = e.settings.StartRating()
	}
	if err := start.Validate(); err != nil {
		return 0, err
	}

	return e.store.Register(ctx, start.Internal(), e.clock()), nil
}

// PlayerRating returns the player's rating as of now, with deviation growth
// for the time since their last update applied. The growth is observed
// lazily and never written back, so repeated queries without intervening
// results are idempotent and side-effect free.
func (e *Engine) PlayerRating(ctx context.Context, id PlayerID) (glicko.Rating, error) {
	metrics.RecordRatingQuery()

	rec, err := e.store.Get(ctx, id)
	if err != nil {
		metrics.RecordUnknownPlayer()
		return glicko.Rating{}, err
	}

	decayed, err := glicko.Update(rec.Rating, nil, e.elapsedPeriods(rec.UpdatedAt, e.clock()), e.settings)
	if err != nil {
		// Empty-result updates cannot fail.
		return glicko.Rating{}, err
	}
	return decayed.Public(), nil
}

// RegisterResult records a match between players a and b and commits both
// updated ratings.
//
// Each side sees the opponent's rating decayed to the moment of the match
// (a non-mutating read), and the two updates are computed independently
// from the pre-match records: neither update's output feeds into the
// other's input. Both records are committed with the same update instant.
func (e *Engine) RegisterResult(ctx context.Context, a, b PlayerID, outcome Outcome) error {
	if a == b {
		return fmt.Errorf("%w: id %d", ErrSamePlayer, a)
	}

	start := time.Now()
	now := e.clock()

	err := e.store.UpdatePair(ctx, a, b, func(recA, recB Record) (Record, Record, error) {
		elapsedA := e.elapsedPeriods(recA.UpdatedAt, now)
		elapsedB := e.elapsedPeriods(recB.UpdatedAt, now)

		// Opponent ratings as of the match, growth only, never committed.
		seenA, err := glicko.Update(recA.Rating, nil, elapsedA, e.settings)
		if err != nil {
			return Record{}, Record{}, err
		}
		seenB, err := glicko.Update(recB.Rating, nil, elapsedB, e.settings)
		if err != nil {
			return Record{}, Record{}, err
		}

		newA, err := glicko.Update(recA.Rating,
			[]glicko.GameResult{{Opponent: seenB, Score: outcome.Score()}},
			elapsedA, e.settings)
		if err != nil {
			return Record{}, Record{}, err
		}
		newB, err := glicko.Update(recB.Rating,
			[]glicko.GameResult{{Opponent: seenA, Score: outcome.Invert().Score()}},
			elapsedB, e.settings)
		if err != nil {
			return Record{}, Record{}, err
		}

		recA.Rating = newA
		recA.UpdatedAt = now
		recB.Rating = newB
		recB.UpdatedAt = now
		return recA, recB, nil
	})
	if err != nil {
		if isUnknownPlayer(err) {
			metrics.RecordUnknownPlayer()
		} else {
			metrics.RecordConvergenceFailure()
		}
		return err
	}

	metrics.RecordResultProcessed()
	metrics.RecordResultLatency(float64(time.Since(start).Microseconds()) / 1e3)
	return nil
}

// TopPlayers returns the n highest-rated players as of now, ordered by
// rating descending with player id as the deterministic tie-breaker.
func (e *Engine) TopPlayers(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	now := e.clock()
	records := e.store.Snapshot(ctx)

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		decayed, err := glicko.Update(rec.Rating, nil, e.elapsedPeriods(rec.UpdatedAt, now), e.settings)
		if err != nil {
			return nil, err
		}
		public := decayed.Public()
		entries = append(entries, Entry{
			PlayerID:   uint64(rec.ID),
			Rating:     public.Rating,
			Deviation:  public.Deviation,
			Volatility: public.Volatility,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	if n < len(entries) {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// PlayerCount returns the number of registered players.
func (e *Engine) PlayerCount(ctx context.Context) int {
	return e.store.Count(ctx)
}

// elapsedPeriods converts the time since a record's last update into a
// fractional rating period count. Clock skew making now earlier than the
// last update counts as zero elapsed time.
func (e *Engine) elapsedPeriods(updatedAt, now time.Time) float64 {
	elapsed := now.Sub(updatedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed.Seconds() / e.periodDuration.Seconds()
}
