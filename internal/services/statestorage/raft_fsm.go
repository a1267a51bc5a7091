package statestorage

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/raft"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

type raftCommandType int

const (
	raftCommandSet raftCommandType = iota
	raftCommandDelete
	raftCommandSetMultiple
)

// raftCommand is the payload of one raft log entry.
type raftCommand struct {
	Type      raftCommandType   `json:"type"`
	Key       string            `json:"key,omitempty"`
	Value     []byte            `json:"value,omitempty"`
	Items     map[string][]byte `json:"items,omitempty"`
	TTL       time.Duration     `json:"ttl,omitempty"`
	NodeID    string            `json:"node_id"`
	Timestamp time.Time         `json:"timestamp"`
}

// expiry derives the deadline from the proposer's timestamp so every
// replica computes the same value.
func (c raftCommand) expiry() time.Time {
	if c.TTL <= 0 {
		return time.Time{}
	}
	return c.Timestamp.Add(c.TTL)
}

// raftEntry is both the in-memory value and its snapshot encoding.
type raftEntry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e raftEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

type raftFSM struct {
	mu       sync.RWMutex
	data     map[string]raftEntry
	watchers *watcherSet
	logger   domain.Logger
}

func newRaftFSM(log domain.Logger) *raftFSM {
	return &raftFSM{
		data:     make(map[string]raftEntry),
		watchers: newWatcherSet(),
		logger:   log,
	}
}

// Apply implements raft.FSM.
func (f *raftFSM) Apply(entry *raft.Log) any {
	var cmd raftCommand
	if err := json.Unmarshal(entry.Data, &cmd); err != nil {
		f.logger.Error("Failed to decode raft command", logger.Error(err))
		return fmt.Errorf("decode raft command: %w", err)
	}

	var events []domain.StateEvent
	f.mu.Lock()
	switch cmd.Type {
	case raftCommandSet:
		f.data[cmd.Key] = raftEntry{Value: cmd.Value, ExpiresAt: cmd.expiry()}
		events = append(events, cmd.event(domain.StateEventSet, cmd.Key, cmd.Value))
	case raftCommandDelete:
		delete(f.data, cmd.Key)
		events = append(events, cmd.event(domain.StateEventDelete, cmd.Key, nil))
	case raftCommandSetMultiple:
		for key, value := range cmd.Items {
			f.data[key] = raftEntry{Value: value, ExpiresAt: cmd.expiry()}
			events = append(events, cmd.event(domain.StateEventSet, key, value))
		}
	default:
		f.mu.Unlock()
		return fmt.Errorf("unknown raft command type %d", cmd.Type)
	}
	f.mu.Unlock()

	for _, ev := range events {
		f.watchers.notify(ev)
	}
	return nil
}

func (c raftCommand) event(kind domain.StateEventType, key string, value []byte) domain.StateEvent {
	return domain.StateEvent{
		Type:      kind,
		Key:       key,
		Value:     value,
		Timestamp: c.Timestamp,
		NodeID:    c.NodeID,
	}
}

// Snapshot implements raft.FSM. Expired entries are dropped.
func (f *raftFSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	now := time.Now()
	data := make(map[string]raftEntry, len(f.data))
	for key, entry := range f.data {
		if !entry.expired(now) {
			data[key] = raftEntry{Value: slices.Clone(entry.Value), ExpiresAt: entry.ExpiresAt}
		}
	}
	return &raftSnapshot{data: data}, nil
}

// Restore implements raft.FSM.
func (f *raftFSM) Restore(snapshot io.ReadCloser) error {
	defer snapshot.Close()

	var data map[string]raftEntry
	if err := json.NewDecoder(snapshot).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if data == nil {
		data = make(map[string]raftEntry)
	}

	f.mu.Lock()
	f.data = data
	f.mu.Unlock()

	f.logger.Info("Restored state from snapshot", logger.Int("keys", len(data)))
	return nil
}

func (f *raftFSM) get(key string, now time.Time) ([]byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, ok := f.data[key]
	if !ok || entry.expired(now) {
		return nil, false
	}
	return slices.Clone(entry.Value), true
}

type raftSnapshot struct {
	data map[string]raftEntry
}

func (s *raftSnapshot) Persist(sink raft.SnapshotSink) error {
	if err := json.NewEncoder(sink).Encode(s.data); err != nil {
		_ = sink.Cancel()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return sink.Close()
}

func (s *raftSnapshot) Release() {}
