// Package cache holds the bounded result cache shared by all lookups.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"ksel-bot/internal/common/metrics"
)

const DefaultCapacity = 20

// Entry is one cached rendering. Negative marks a cached "no results" text.
type Entry struct {
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	Negative   bool      `json:"negative"`
	InsertedAt time.Time `json:"insertedAt"`
	Version    uint64    `json:"version"`
}

// Store is a fixed-capacity map that evicts the oldest insertion once full.
// Reads go through Peek so they never reorder entries; overwriting a key
// counts as a fresh insertion. Every method holds mu for exactly one
// operation, so an eviction is never observable half-done.
type Store struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, Entry]
	capacity int
	freshTTL time.Duration
	versions atomic.Uint64
	now      func() time.Time
}

type Option func(*Store)

// WithFreshTTL makes entries older than ttl invisible to GetFresh. They
// stay available to Get for stale fallback until evicted.
func WithFreshTTL(ttl time.Duration) Option {
	return func(s *Store) { s.freshTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(capacity int, opts ...Option) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	lru, err := simplelru.NewLRU[string, Entry](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	s := &Store{
		lru:      lru,
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ticket reserves a version number. A write made with a later ticket always
// wins over one made with an earlier ticket, whatever order they arrive in.
func (s *Store) Ticket() uint64 {
	return s.versions.Add(1)
}

// Get returns the entry for key regardless of age.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Peek(key)
}

// GetFresh is Get with the fresh TTL applied.
func (s *Store) GetFresh(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Peek(key)
	if !ok {
		metrics.CacheMisses.Inc()
		return Entry{}, false
	}
	if s.freshTTL > 0 && s.now().Sub(e.InsertedAt) > s.freshTTL {
		metrics.CacheMisses.Inc()
		return Entry{}, false
	}
	metrics.CacheHits.Inc()
	return e, true
}

// Put inserts or overwrites key unconditionally.
func (s *Store) Put(key, value string) {
	s.PutVersioned(key, value, false, s.Ticket())
}

// PutVersioned writes only when version is newer than the stored entry's.
// It reports whether the write happened.
func (s *Store) PutVersioned(key, value string, negative bool, version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.lru.Peek(key); ok && existing.Version > version {
		metrics.StaleCompletionsDropped.Inc()
		return false
	}

	evicted := s.lru.Add(key, Entry{
		Key:        key,
		Value:      value,
		Negative:   negative,
		InsertedAt: s.now(),
		Version:    version,
	})
	if evicted {
		metrics.CacheEvictions.Inc()
	}
	metrics.CacheEntries.Set(float64(s.lru.Len()))
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Keys lists keys from oldest to newest insertion.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Keys()
}

func (s *Store) Capacity() int {
	return s.capacity
}
