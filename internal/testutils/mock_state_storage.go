package testutils

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// MockStateStorage is an in-memory domain.StateStorage with injectable failures.
type MockStateStorage struct {
	mu       sync.RWMutex
	data     map[string][]byte
	setErr   error
	getErr   error
	pingErr  error
	setCalls int
}

// NewMockStateStorage creates an empty mock storage.
func NewMockStateStorage() *MockStateStorage {
	return &MockStateStorage{data: make(map[string][]byte)}
}

// FailSet makes subsequent Set and SetMultiple calls return err.
func (m *MockStateStorage) FailSet(err error) {
	m.mu.Lock()
	m.setErr = err
	m.mu.Unlock()
}

// FailGet makes subsequent Get and GetMultiple calls return err.
func (m *MockStateStorage) FailGet(err error) {
	m.mu.Lock()
	m.getErr = err
	m.mu.Unlock()
}

// FailPing makes subsequent Ping calls return err.
func (m *MockStateStorage) FailPing(err error) {
	m.mu.Lock()
	m.pingErr = err
	m.mu.Unlock()
}

func (m *MockStateStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	value, ok := m.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return slices.Clone(value), nil
}

func (m *MockStateStorage) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *MockStateStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *MockStateStorage) GetMultiple(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := m.data[key]; ok {
			result[key] = slices.Clone(value)
		}
	}
	return result, nil
}

func (m *MockStateStorage) SetMultiple(_ context.Context, items map[string][]byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	for key, value := range items {
		m.data[key] = slices.Clone(value)
	}
	return nil
}

// Watch returns a closed channel.
func (m *MockStateStorage) Watch(_ context.Context, _ string) (<-chan domain.StateEvent, error) {
	ch := make(chan domain.StateEvent)
	close(ch)
	return ch, nil
}

func (m *MockStateStorage) Close() error { return nil }

func (m *MockStateStorage) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingErr
}

// Keys returns the stored keys in sorted order.
func (m *MockStateStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.data))
}

// SetCalls returns how many write calls were made.
func (m *MockStateStorage) SetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setCalls
}
