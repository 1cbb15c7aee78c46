// Package cache provides the bounded store behind rendered bodies, summaries
// and extracted images.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Error is a sentinel error string.
type Error string

func (e Error) Error() string { return string(e) }

// ErrInvalidCapacity is returned when a store is sized below one entry.
const ErrInvalidCapacity Error = "cache capacity must be at least 1"

// Stats counts lookups since the store was created.
type Stats struct {
	Hits   uint64
	Misses uint64
	Shared uint64
}

// Store is a least-recently-used map from derived keys to computed strings.
// Concurrent misses on the same key share one computation. It is safe for
// concurrent use.
type Store struct {
	logger *slog.Logger

	// mu guards swapping entries; the lru synchronizes its own access.
	mu       sync.RWMutex
	entries  *lru.Cache[string, string]
	capacity int

	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
	shared atomic.Uint64
}

// New creates a Store holding at most capacity entries.
func New(capacity int, logger *slog.Logger) (*Store, error) {
	entries, err := newEntries(capacity)
	if err != nil {
		return nil, err
	}
	return &Store{
		logger:   logger.With(slog.String("component", "cache")),
		entries:  entries,
		capacity: capacity,
	}, nil
}

func newEntries(capacity int) (*lru.Cache[string, string], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	entries, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	return entries, nil
}

// Get returns the value stored under key, marking it recently used.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Get(key)
}

// Add stores value under key, evicting the least recently used entry when
// the store is full.
func (s *Store) Add(key, value string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.entries.Add(key, value)
}

// GetOrCompute returns the value stored under key, or calls compute, stores
// its result and returns it. Callers racing on the same missing key wait
// for the first caller's result instead of computing again.
func (s *Store) GetOrCompute(ctx context.Context, key string, compute func() string) string {
	if value, ok := s.Get(key); ok {
		s.hits.Add(1)
		s.logger.DebugContext(ctx, "cache hit", slog.String("key", key))
		return value
	}
	s.misses.Add(1)
	s.logger.DebugContext(ctx, "cache miss", slog.String("key", key))

	result, _, shared := s.group.Do(key, func() (any, error) {
		value := compute()
		s.Add(key, value)
		return value, nil
	})
	if shared {
		s.shared.Add(1)
	}
	return result.(string) //nolint:forcetypeassert // only strings are stored
}

// Resize replaces the store with an empty one of the new capacity. Entries
// computed before the call are dropped.
func (s *Store) Resize(capacity int) error {
	entries, err := newEntries(capacity)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.capacity = capacity
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

// Capacity returns the maximum number of entries.
func (s *Store) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity
}

// Stats returns the lookup counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Shared: s.shared.Load(),
	}
}
