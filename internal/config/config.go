// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults and Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MatchQueueSize bounds the in-memory match event queue.
	MatchQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of result-processing workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the match deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the player store.
	ShardCount int `koanf:"shard_count"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RatingPeriod is the wall-clock length of one rating period,
	// in time.ParseDuration syntax, e.g. "24h".
	RatingPeriod string `koanf:"rating_period"`

	// VolatilityChange is the tau constant constraining volatility drift.
	VolatilityChange float64 `koanf:"volatility_change"`

	// ConvergenceTolerance is the cutoff for the volatility iteration.
	ConvergenceTolerance float64 `koanf:"convergence_tolerance"`

	// StartRating, StartDeviation, and StartVolatility seed new players.
	StartRating     float64 `koanf:"start_rating"`
	StartDeviation  float64 `koanf:"start_deviation"`
	StartVolatility float64 `koanf:"start_volatility"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		MatchQueueSize:       100_000,
		WorkerCount:          runtime.NumCPU() * 4,
		DedupeSize:           500_000,
		ShardCount:           8,
		MaxLeaderboardLimit:  100,
		RatingPeriod:         "24h",
		VolatilityChange:     0.5,
		ConvergenceTolerance: 0.000_001,
		StartRating:          1500.0,
		StartDeviation:       350.0,
		StartVolatility:      0.06,
	}
	return c
}

// Period parses RatingPeriod. Call after validation; an unparsable value
// falls back to 24h.
func (c *Config) Period() time.Duration {
	d, err := time.ParseDuration(c.RatingPeriod)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
