package store

import (
	"context"
	"sync"
	"time"

	"github.com/ineyio/usagemeter"
)

// MemoryStore is an in-memory Store with TTL expiry.
//
// Unlike the replicated backends the core is designed around, a
// MemoryStore is read-after-write consistent. It is meant for tests and
// single-process deployments; it does not make the core's read-modify-
// write cycles atomic.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]item

	now func() time.Time
}

type item struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

var _ usagemeter.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]item),
		now:   time.Now,
	}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !it.expiresAt.IsZero() && !s.now().Before(it.expiresAt) {
		// Expired; drop lazily. Re-check under the write lock so a
		// concurrent Put of the same key is not clobbered.
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && cur.expiresAt.Equal(it.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return it.value, true, nil
}

// Put writes value under key. A ttl of zero means no expiry.
func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	it := item{value: value}
	if ttl > 0 {
		it.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
	return nil
}

// Len returns the number of live entries. Expired entries that have not
// been read since expiry are still counted.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
