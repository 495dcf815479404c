package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryIdempotencyStore is a process-local IdempotencyStore.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expiresAt, ok := m.entries[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	m.entries[key] = now.Add(ttl)

	// sweep expired keys so the map does not grow without bound
	for k, expiresAt := range m.entries {
		if !now.Before(expiresAt) {
			delete(m.entries, k)
		}
	}
	return true, nil
}

func (m *MemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
