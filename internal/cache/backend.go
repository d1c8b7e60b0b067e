package cache

import (
	"context"
	"sync"
)

// Backend is a flat key → artifact store.
type Backend interface {
	// Get returns the artifact and true, or false on a miss.
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	// Put stores the artifact, replacing any previous one.
	Put(ctx context.Context, key Key, data []byte) error
	// Clear removes every artifact and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}

// MemoryBackend keeps artifacts in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[Key][]byte
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[Key][]byte)}
}

func (m *MemoryBackend) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *MemoryBackend) Put(ctx context.Context, key Key, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Clear(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.items)
	m.items = make(map[Key][]byte)
	return n, nil
}
