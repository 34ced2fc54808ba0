// Package store is the process-wide cache and rate-limit state. One Store
// is constructed per process and injected; everything else in the module is
// request-scoped.
package store

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a thread-safe in-memory TTL cache with a sliding-window request
// counter. Entries expire lazily on read.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	windowMu sync.Mutex
	windows  map[string][]time.Time

	now func() time.Time
}

func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Get returns the cached value for key, dropping it if its TTL elapsed.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
}

// IsLimited records one request for key and reports whether the key already
// used up maxCount requests inside the sliding window. The request that
// trips the limit is not recorded.
func (s *Store) IsLimited(key string, maxCount int, window time.Duration) bool {
	now := s.now()
	cutoff := now.Add(-window)

	s.windowMu.Lock()
	defer s.windowMu.Unlock()

	kept := s.windows[key][:0]
	for _, t := range s.windows[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= maxCount {
		s.windows[key] = kept
		return true
	}

	s.windows[key] = append(kept, now)
	return false
}
