package evidence

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	tier      int
}

// MemoryStore is the default in-process evidence store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stats   counters
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Store. Expired entries are removed on read.
func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		s.stats.misses.Add(1)
		return false, nil
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a fresh Set may have raced in.
		if cur, ok := s.entries[key]; ok && s.now().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		s.stats.expirations.Add(1)
		s.stats.misses.Add(1)
		return false, nil
	}

	if err := json.Unmarshal(entry.value, dest); err != nil {
		return false, err
	}
	s.stats.hits.Add(1)
	return true, nil
}

// Set implements Store; last write wins.
func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration, tier int) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: data, expiresAt: s.now().Add(ttl), tier: tier}
	s.mu.Unlock()
	s.stats.sets.Add(1)
	return nil
}

// Has implements Store.
func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	return ok && !s.now().After(entry.expiresAt), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// Cleanup implements Store.
func (s *MemoryStore) Cleanup(_ context.Context) (int, error) {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.stats.expirations.Add(uint64(removed))
	}
	return removed, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats() Stats { return s.stats.snapshot() }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// Len reports the current entry count, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
