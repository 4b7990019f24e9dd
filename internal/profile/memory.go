package profile

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps profiles in process memory.
// Used by tests and by ephemeral runs that should not touch disk.
//
// Thread-safety: MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	puts     int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

// GetProfile implements Store.
func (m *MemoryStore) GetProfile(_ context.Context, userID string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p.Clone(), nil
}

// PutProfile implements Store.
func (m *MemoryStore) PutProfile(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p.Clone()
	m.puts++
	return nil
}

// Puts reports how many writes the store has received.
func (m *MemoryStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// UserIDs lists stored users in sorted order.
func (m *MemoryStore) UserIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.profiles))
	for id := range m.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
