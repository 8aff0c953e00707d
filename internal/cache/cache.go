package cache

import (
	"sync"
	"time"
)

// DefaultTimeout is the lifetime of a cached response when none is configured
const DefaultTimeout = 5 * time.Minute

type entry struct {
	payload  []byte
	storedAt time.Time
}

// Store is a time-bounded key/value memo for read-only responses.
// Expired entries are evicted lazily on lookup; there is no size cap
// and no background sweep.
type Store struct {
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// New returns a Store whose entries live for timeout (DefaultTimeout if <= 0)
func New(timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		timeout: timeout,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the payload for key while it is younger than the timeout.
// A stale entry is deleted and reported as absent.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.storedAt) < s.timeout {
		return e.payload, true
	}
	delete(s.entries, key)
	return nil, false
}

// Set overwrites any prior entry for key, stamped with the current time
func (s *Store) Set(key string, payload []byte) {
	s.mu.Lock()
	s.entries[key] = entry{payload: payload, storedAt: s.now()}
	s.mu.Unlock()
}

// Clear drops every entry
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// Len returns the number of entries, stale ones included
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Timeout returns the configured entry lifetime
func (s *Store) Timeout() time.Duration {
	return s.timeout
}
