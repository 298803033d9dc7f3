package storage

import (
	"context"
	"slices"
	"sync"
)

var (
	_ KV          = (*MemoryKV)(nil)
	_ BatchWriter = (*MemoryKV)(nil)
)

// MemoryKV keeps everything in process memory. Used in tests and for ephemeral runs.
type MemoryKV struct {
	mutex sync.RWMutex
	data  map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data: make(map[string][]byte),
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data[key] = slices.Clone(value)
	return nil
}

func (m *MemoryKV) SetMany(_ context.Context, entries []Entry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, e := range entries {
		m.data[e.Key] = slices.Clone(e.Value)
	}
	return nil
}
