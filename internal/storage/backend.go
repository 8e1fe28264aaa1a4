package storage

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrNotFound is returned by a Backend when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Backend is the platform storage primitive records are written to.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ClosableBackend is what Open hands back to the process owning the backend.
type ClosableBackend interface {
	Backend
	io.Closer
}

// MemoryBackend keeps values in process memory. Used for ephemeral runs and tests.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

var _ ClosableBackend = (*MemoryBackend)(nil)
