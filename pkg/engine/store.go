package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gpluscb/instant-glicko-2/pkg/glicko"
	"github.com/gpluscb/instant-glicko-2/pkg/metrics"
)

// PlayerID identifies a player registered with an engine. IDs are handed
// out by a monotonically increasing counter and are never reused.
type PlayerID uint64

// Record is the stored state for one player: the internal rating as of the
// last committed update, and when that update happened. Deviation growth
// from idle time is derived at read time and never written back.
type Record struct {
	ID        PlayerID
	Rating    glicko.InternalRating
	UpdatedAt time.Time
}

// Store provides access to player records. Implementations must allow
// concurrent readers, and must serialize updates that touch the same
// player so that no committed update is lost.
type Store interface {
	// Register stores a new player record and returns its fresh id.
	Register(ctx context.Context, rating glicko.InternalRating, now time.Time) PlayerID

	// Get returns a copy of the record for id.
	// Returns ErrUnknownPlayer if id was never registered.
	Get(ctx context.Context, id PlayerID) (Record, error)

	// UpdatePair atomically applies update to the records of two distinct
	// players and commits both returned records, unless update returns an
	// error, in which case nothing changes.
	// Returns ErrUnknownPlayer if either id was never registered.
	UpdatePair(ctx context.Context, a, b PlayerID, update func(a, b Record) (Record, Record, error)) error

	// Count returns the number of registered players.
	Count(ctx context.Context) int

	// Snapshot returns a copy of every record.
	Snapshot(ctx context.Context) []Record
}

// Default store configuration constants.
const defaultShardCount = 8

// MemStore is the in-memory Store implementation. Records are sharded by
// id; each shard is guarded by its own RWMutex, so updates on disjoint
// shards proceed independently.
type MemStore struct {
	shards []*shard
	nextID atomic.Uint64
}

type shard struct {
	mu      sync.RWMutex
	records map[PlayerID]Record
}

// StoreOption applies a configuration option to the MemStore.
type StoreOption func(*MemStore)

// WithShardCount sets the number of shards.
func WithShardCount(count int) StoreOption {
	return func(s *MemStore) {
		if count > 0 {
			s.shards = make([]*shard, count)
		}
	}
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...StoreOption) *MemStore {
	s := &MemStore{
		shards: make([]*shard, defaultShardCount),
	}

	for _, opt := range opts {
		opt(s)
	}

	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[PlayerID]Record)}
	}
	metrics.UpdateStoreShardCount(len(s.shards))

	return s
}

func (s *MemStore) shardFor(id PlayerID) (int, *shard) {
	idx := int(uint64(id) % uint64(len(s.shards)))
	return idx, s.shards[idx]
}

// Register stores a new player record and returns its fresh id.
func (s *MemStore) Register(ctx context.Context, rating glicko.InternalRating, now time.Time) PlayerID {
	id := PlayerID(s.nextID.Add(1))

	_, sh := s.shardFor(id)
	sh.mu.Lock()
	sh.records[id] = Record{ID: id, Rating: rating, UpdatedAt: now}
	sh.mu.Unlock()

	metrics.RecordPlayerRegistered()
	metrics.UpdateTotalPlayers(s.Count(ctx))
	return id
}

// Get returns a copy of the record for id.
func (s *MemStore) Get(_ context.Context, id PlayerID) (Record, error) {
	_, sh := s.shardFor(id)
	sh.mu.RLock()
	rec, ok := sh.records[id]
	sh.mu.RUnlock()

	if !ok {
		return Record{}, fmt.Errorf("%w: id %d", ErrUnknownPlayer, id)
	}
	return rec, nil
}

// UpdatePair atomically applies update to the records of players a and b.
//
// Shard locks are acquired in ascending shard order, which both avoids
// deadlock between concurrent pair updates and gives updates touching the
// same records a deterministic sequence.
func (s *MemStore) UpdatePair(_ context.Context, a, b PlayerID, update func(a, b Record) (Record, Record, error)) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1e3)
	}()

	idxA, shardA := s.shardFor(a)
	idxB, shardB := s.shardFor(b)

	switch {
	case idxA == idxB:
		shardA.mu.Lock()
		defer shardA.mu.Unlock()
	case idxA < idxB:
		shardA.mu.Lock()
		defer shardA.mu.Unlock()
		shardB.mu.Lock()
		defer shardB.mu.Unlock()
	default:
		shardB.mu.Lock()
		defer shardB.mu.Unlock()
		shardA.mu.Lock()
		defer shardA.mu.Unlock()
	}

	recA, ok := shardA.records[a]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownPlayer, a)
	}
	recB, ok := shardB.records[b]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownPlayer, b)
	}

	newA, newB, err := update(recA, recB)
	if err != nil {
		return err
	}

	shardA.records[a] = newA
	shardB.records[b] = newB
	return nil
}

// Count returns the number of registered players.
func (s *MemStore) Count(_ context.Context) int {
	var n int
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}
	return n
}

// Snapshot returns a copy of every record. Shards are read one at a time,
// so the snapshot is consistent per shard but not across shards.
func (s *MemStore) Snapshot(ctx context.Context) []Record {
	out := make([]Record, 0, s.Count(ctx))
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, rec := range sh.records {
			out = append(out, rec)
		}
		sh.mu.RUnlock()
	}
	return out
}
