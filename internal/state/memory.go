// ABOUTME: In-memory client state for tests and ephemeral embedding
// ABOUTME: Mirrors the SQLiteState contract without touching disk

package state

import (
	"context"
	"sync"
)

// MemoryState holds the session pointer in memory only. It satisfies the
// same contract as SQLiteState and is intended for tests and hosts that
// do not want durable state.
type MemoryState struct {
	mu   sync.Mutex
	last string
}

// NewMemoryState returns an empty in-memory state.
func NewMemoryState() *MemoryState {
	return &MemoryState{}
}

// LastSessionID returns the stored pointer, or "" when unset.
func (m *MemoryState) LastSessionID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

// SetLastSessionID stores id as the most recently used session.
func (m *MemoryState) SetLastSessionID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = id
	return nil
}

// ClearLastSessionID removes the pointer.
func (m *MemoryState) ClearLastSessionID(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = ""
	return nil
}
