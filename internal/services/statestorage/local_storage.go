package statestorage

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// LocalStorage keeps state in process memory. It serves single-instance
// deployments and tests.
type LocalStorage struct {
	nodeID string
	now    func() time.Time

	mu       sync.RWMutex
	items    map[string]localItem
	closed   bool
	watchers *watcherSet
	done     chan struct{}
}

type localItem struct {
	value     []byte
	expiresAt time.Time
}

func (it localItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

// NewLocalStorage creates an empty in-memory storage.
func NewLocalStorage(nodeID string) *LocalStorage {
	return newLocalStorageWithClock(nodeID, time.Now)
}

func newLocalStorageWithClock(nodeID string, now func() time.Time) *LocalStorage {
	return &LocalStorage{
		nodeID:   nodeID,
		now:      now,
		items:    make(map[string]localItem),
		watchers: newWatcherSet(),
		done:     make(chan struct{}),
	}
}

func (ls *LocalStorage) Get(_ context.Context, key string) ([]byte, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	if ls.closed {
		return nil, domain.ErrStorageUnavailable
	}
	item, ok := ls.items[key]
	if !ok || item.expired(ls.now()) {
		return nil, domain.ErrKeyNotFound
	}
	return slices.Clone(item.value), nil
}

func (ls *LocalStorage) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	event, err := ls.store(key, value, ttl)
	if err != nil {
		return err
	}
	ls.watchers.notify(event)
	return nil
}

func (ls *LocalStorage) store(key string, value []byte, ttl time.Duration) (domain.StateEvent, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.closed {
		return domain.StateEvent{}, domain.ErrStorageUnavailable
	}

	now := ls.now()
	item := localItem{value: slices.Clone(value)}
	if ttl > 0 {
		item.expiresAt = now.Add(ttl)
	}
	ls.items[key] = item

	return domain.StateEvent{
		Type:      domain.StateEventSet,
		Key:       key,
		Value:     slices.Clone(value),
		Timestamp: now,
		NodeID:    ls.nodeID,
	}, nil
}

func (ls *LocalStorage) Delete(_ context.Context, key string) error {
	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return domain.ErrStorageUnavailable
	}
	delete(ls.items, key)
	now := ls.now()
	ls.mu.Unlock()

	ls.watchers.notify(domain.StateEvent{
		Type:      domain.StateEventDelete,
		Key:       key,
		Timestamp: now,
		NodeID:    ls.nodeID,
	})
	return nil
}

// GetMultiple omits missing and expired keys.
func (ls *LocalStorage) GetMultiple(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, err := ls.Get(ctx, key)
		switch {
		case err == nil:
			result[key] = value
		case errors.Is(err, domain.ErrKeyNotFound):
		default:
			return nil, err
		}
	}
	return result, nil
}

func (ls *LocalStorage) SetMultiple(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	for key, value := range items {
		if err := ls.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Watch delivers events for keys starting with keyPrefix until ctx is done.
// Slow consumers drop events rather than block writers.
func (ls *LocalStorage) Watch(ctx context.Context, keyPrefix string) (<-chan domain.StateEvent, error) {
	if err := ls.Ping(ctx); err != nil {
		return nil, err
	}

	ch := ls.watchers.add(keyPrefix)
	go func() {
		select {
		case <-ctx.Done():
		case <-ls.done:
		}
		ls.watchers.remove(ch)
	}()

	return ch, nil
}

// Close drops all data and closes every watch channel.
func (ls *LocalStorage) Close() error {
	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return nil
	}
	ls.closed = true
	ls.items = make(map[string]localItem)
	close(ls.done)
	ls.mu.Unlock()

	ls.watchers.closeAll()
	return nil
}

func (ls *LocalStorage) Ping(_ context.Context) error {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	if ls.closed {
		return domain.ErrStorageUnavailable
	}
	return nil
}
