package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryAdapter provides thread-safe in-memory storage.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMemoryAdapter creates a new in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		data: make(map[string]json.RawMessage),
	}
}

// Get retrieves a value by key.
func (m *MemoryAdapter) Get(_ context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

// Set stores a copy of value by key.
func (m *MemoryAdapter) Set(_ context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append(json.RawMessage(nil), value...)
	return nil
}

// Delete removes a key.
func (m *MemoryAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the keys with the given prefix.
func (m *MemoryAdapter) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (m *MemoryAdapter) Close() error { return nil }
