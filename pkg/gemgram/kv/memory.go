package kv

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and available as a
// fallback when no database path is configured. Semantics mirror
// SQLiteStore, including byte-equality compare-and-set.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	closed bool

	// FailAll makes every operation return ErrClosed. Tests use it to
	// exercise the degraded-store paths.
	FailAll bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) err() error {
	if m.closed || m.FailAll {
		return ErrClosed
	}
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err(); err != nil {
		return nil, false, err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err(); err != nil {
		return err
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err(); err != nil {
		return err
	}
	delete(m.data, key)
	return nil
}

// CompareAndSet implements Store.
func (m *MemoryStore) CompareAndSet(_ context.Context, key string, old, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err(); err != nil {
		return false, err
	}
	cur, ok := m.data[key]
	if old == nil {
		if ok {
			return false, nil
		}
	} else {
		if !ok || !bytes.Equal(cur, old) {
			return false, nil
		}
	}
	m.data[key] = append([]byte(nil), value...)
	return true, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
