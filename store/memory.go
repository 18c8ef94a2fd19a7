package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    string
	deadline time.Time
}

// Memory is an in-process Backend. Expiry is enforced lazily on read;
// there is no background sweeper.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

// Read implements Backend.
func (m *Memory) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	if entry.deadline.IsZero() || !entry.deadline.Before(m.now()) {
		return entry.value, true, nil
	}

	// the entry may have been replaced between the two locks; only delete
	// what is still expired
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok = m.entries[key]
	if !ok {
		return "", false, nil
	}

	if !entry.deadline.IsZero() && entry.deadline.Before(m.now()) {
		delete(m.entries, key)
		return "", false, nil
	}

	return entry.value, true, nil
}

// Write implements Backend.
func (m *Memory) Write(_ context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.deadline = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	return nil
}

// Delete implements Backend.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

// Len reports the number of live entries. Used by tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
