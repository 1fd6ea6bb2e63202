// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	matchqueue "github.com/gpluscb/instant-glicko-2/internal/adapters/mq/queue"
	workerpool "github.com/gpluscb/instant-glicko-2/internal/adapters/mq/worker"
	"github.com/gpluscb/instant-glicko-2/internal/domain/dedupe"
	"github.com/gpluscb/instant-glicko-2/internal/domain/model"
	"github.com/gpluscb/instant-glicko-2/pkg/engine"
	"github.com/gpluscb/instant-glicko-2/pkg/glicko"
	"github.com/gpluscb/instant-glicko-2/pkg/logger"
	"github.com/gpluscb/instant-glicko-2/pkg/metrics"
)

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine     *engine.Engine
	deduper    dedupe.Deduper
	matchQueue matchqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	shardCount     int
	periodDuration time.Duration
	settings       glicko.Settings

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the match event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of shards in the player store.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithPeriodDuration sets the wall-clock length of one rating period.
func WithPeriodDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.periodDuration = d
		}
	}
}

// WithSettings sets the Glicko-2 settings used by the engine.
func WithSettings(settings glicko.Settings) Option {
	return func(s *Service) {
		s.settings = settings
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 2,
		queueSize:      100000,
		dedupeSize:     50000,
		shardCount:     8,
		periodDuration: engine.DefaultPeriodDuration,
		settings:       glicko.DefaultSettings(),
		logger:         nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rating service...")

	// Initialize components
	s.engine = engine.New(s.settings,
		engine.WithPeriodDuration(s.periodDuration),
		engine.WithStore(engine.NewMemStore(engine.WithShardCount(s.shardCount))),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.matchQueue = matchqueue.NewInMemoryQueue(
		matchqueue.WithCapacity(s.queueSize),
		matchqueue.WithBufferSize(s.queueSize),
	)

	// Create and start worker pool
	s.workerPool = workerpool.NewPool(s.workerCount, s.matchQueue, s.engine)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("ratingPeriod", s.periodDuration),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating service...")

	// Shut down the worker pool; this also closes the queue so the
	// workers drain the backlog before exiting.
	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// SeenAndRecord atomically checks if a match id was seen and records it if not.
// Returns true if the match was already seen, false if it was newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a match ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a match event for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, e model.MatchEvent) bool {
	s.logger.Debug(ctx, "enqueueing match event",
		logger.String("matchID", e.MatchID),
		logger.Uint64("playerA", uint64(e.PlayerA)),
		logger.Uint64("playerB", uint64(e.PlayerB)),
		logger.String("outcome", e.Outcome.String()),
	)

	success := s.matchQueue.Enqueue(ctx, e)
	if success {
		metrics.UpdateQueueSize(s.matchQueue.Len(ctx))
	}
	return success
}

// RegisterPlayer creates a new player and returns its id. A zero start
// rating registers the player at the configured defaults.
func (s *Service) RegisterPlayer(ctx context.Context, start glicko.Rating) (engine.PlayerID, error) {
	return s.engine.RegisterPlayer(ctx, start)
}

// PlayerRating returns the player's rating as of now.
func (s *Service) PlayerRating(ctx context.Context, id engine.PlayerID) (glicko.Rating, error) {
	return s.engine.PlayerRating(ctx, id)
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]engine.Entry, error) {
	return s.engine.TopPlayers(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.matchQueue.Len(ctx)
		totalPlayers := s.engine.PlayerCount(ctx)

		stats["queueLength"] = queueLen
		stats["totalPlayers"] = totalPlayers
		stats["ratingPeriod"] = s.periodDuration.String()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalPlayers(totalPlayers)
	}

	return stats
}
