// Package experience persists replica observations so the learning agent can
// replay them. Every observation is stored under its own key with a per-node
// index bounded by the configured retention.
package experience

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	experienceconfig "github.com/demonshower/BFTBrain/internal/config/modules/experience"
	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
	"github.com/demonshower/BFTBrain/internal/telemetry"
)

const (
	observationPrefix = "obs/"
	latestPrefix      = "latest/"
	indexPrefix       = "index/"
	nodesKey          = "nodes"
)

var (
	// ErrStaleEpoch is returned when an observation does not advance its
	// node's epoch.
	ErrStaleEpoch = errors.New("stale epoch")
	// ErrNoObservations is returned when a node has nothing stored.
	ErrNoObservations = errors.New("no observations")
)

// Store keeps observations in a domain.StateStorage.
type Store struct {
	storage domain.StateStorage
	config  experienceconfig.Config
	logger  domain.Logger

	// mu serializes read-modify-write of index and node keys.
	mu sync.Mutex
}

// NewStore creates a store over storage.
func NewStore(storage domain.StateStorage, config experienceconfig.Config, log domain.Logger) *Store {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = domain.DefaultHistoryLimit
	}
	if config.MaxHistoryLimit < config.HistoryLimit {
		config.MaxHistoryLimit = max(config.HistoryLimit, domain.MaxHistoryLimit)
	}
	if config.Retention <= 0 {
		config.Retention = experienceconfig.DefaultRetention
	}
	return &Store{
		storage: storage,
		config:  config,
		logger:  log.With(logger.Component("experience")),
	}
}

func observationKey(nodeID string, epoch uint64) string {
	return fmt.Sprintf("%s%s/%020d", observationPrefix, nodeID, epoch)
}

// Append stores obs as the newest observation of its node. The epoch must be
// greater than every epoch already stored for the node.
func (s *Store) Append(ctx context.Context, obs telemetry.Observation) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to encode observation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	epochs, err := s.index(ctx, obs.NodeID)
	if err != nil {
		return err
	}
	if n := len(epochs); n > 0 && obs.Epoch <= epochs[n-1] {
		return fmt.Errorf("%w: node %s epoch %d is not after %d", ErrStaleEpoch, obs.NodeID, obs.Epoch, epochs[n-1])
	}

	epochs = append(epochs, obs.Epoch)
	var evicted []uint64
	if over := len(epochs) - s.config.Retention; over > 0 {
		evicted = slices.Clone(epochs[:over])
		epochs = epochs[over:]
	}

	indexPayload, err := json.Marshal(epochs)
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	// The observation goes in before latest/ so watchers never see an
	// epoch whose record is missing.
	if err := s.storage.Set(ctx, observationKey(obs.NodeID, obs.Epoch), payload, s.config.TTL); err != nil {
		return fmt.Errorf("failed to store observation: %w", err)
	}
	if err := s.storage.SetMultiple(ctx, map[string][]byte{
		indexPrefix + obs.NodeID:  indexPayload,
		latestPrefix + obs.NodeID: payload,
	}, s.config.TTL); err != nil {
		return fmt.Errorf("failed to update index: %w", err)
	}

	if len(epochs) == 1 {
		if err := s.rememberNode(ctx, obs.NodeID); err != nil {
			return err
		}
	}

	for _, epoch := range evicted {
		if err := s.storage.Delete(ctx, observationKey(obs.NodeID, epoch)); err != nil {
			s.logger.Warn("Failed to evict observation",
				logger.NodeID(obs.NodeID),
				logger.Epoch(epoch),
				logger.Error(err))
		}
	}

	s.logger.Debug("Observation stored",
		logger.NodeID(obs.NodeID),
		logger.Protocol(obs.Protocol),
		logger.Epoch(obs.Epoch),
		logger.Int("evicted", len(evicted)))
	return nil
}

// Latest returns the newest observation of nodeID.
func (s *Store) Latest(ctx context.Context, nodeID string) (telemetry.Observation, error) {
	raw, err := s.storage.Get(ctx, latestPrefix+nodeID)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return telemetry.Observation{}, fmt.Errorf("%w for node %s", ErrNoObservations, nodeID)
	}
	if err != nil {
		return telemetry.Observation{}, fmt.Errorf("failed to read latest observation: %w", err)
	}
	return decode(raw)
}

// History returns up to limit observations of nodeID, newest first. A
// non-positive limit selects the configured default; larger limits are capped.
func (s *Store) History(ctx context.Context, nodeID string, limit int) ([]telemetry.Observation, error) {
	limit = s.Limit(limit)

	epochs, err := s.index(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if len(epochs) == 0 {
		return nil, fmt.Errorf("%w for node %s", ErrNoObservations, nodeID)
	}

	start := max(len(epochs)-limit, 0)
	keys := make([]string, 0, len(epochs)-start)
	for _, epoch := range slices.Backward(epochs[start:]) {
		keys = append(keys, observationKey(nodeID, epoch))
	}

	values, err := s.storage.GetMultiple(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	history := make([]telemetry.Observation, 0, len(keys))
	for _, key := range keys {
		raw, ok := values[key]
		if !ok {
			continue
		}
		obs, err := decode(raw)
		if err != nil {
			return nil, err
		}
		history = append(history, obs)
	}
	return history, nil
}

// Limit normalizes a requested page size.
func (s *Store) Limit(limit int) int {
	switch {
	case limit <= 0:
		return s.config.HistoryLimit
	case limit > s.config.MaxHistoryLimit:
		return s.config.MaxHistoryLimit
	default:
		return limit
	}
}

// Nodes returns every node that has appended an observation, sorted.
func (s *Store) Nodes(ctx context.Context) ([]string, error) {
	raw, err := s.storage.Get(ctx, nodesKey)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}

	var nodes []string
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes: %w", err)
	}
	return nodes, nil
}

// Watch streams observations appended by any node until ctx is done or the
// storage closes.
func (s *Store) Watch(ctx context.Context) (<-chan telemetry.Observation, error) {
	events, err := s.storage.Watch(ctx, latestPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to watch observations: %w", err)
	}

	out := make(chan telemetry.Observation, domain.DefaultWatchChannelBufferSize)
	go func() {
		defer close(out)
		for event := range events {
			if event.Type != domain.StateEventSet {
				continue
			}
			obs, err := decode(event.Value)
			if err != nil {
				s.logger.Warn("Skipping undecodable observation event",
					logger.String("key", event.Key),
					logger.Error(err))
				continue
			}
			select {
			case out <- obs:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Store) index(ctx context.Context, nodeID string) ([]uint64, error) {
	raw, err := s.storage.Get(ctx, indexPrefix+nodeID)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var epochs []uint64
	if err := json.Unmarshal(raw, &epochs); err != nil {
		return nil, fmt.Errorf("failed to decode index for node %s: %w", nodeID, err)
	}
	return epochs, nil
}

func (s *Store) rememberNode(ctx context.Context, nodeID string) error {
	nodes, err := s.Nodes(ctx)
	if err != nil {
		return err
	}
	pos, found := slices.BinarySearch(nodes, nodeID)
	if found {
		return nil
	}
	nodes = slices.Insert(nodes, pos, nodeID)

	raw, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("failed to encode nodes: %w", err)
	}
	if err := s.storage.Set(ctx, nodesKey, raw, 0); err != nil {
		return fmt.Errorf("failed to store nodes: %w", err)
	}
	return nil
}

func decode(raw []byte) (telemetry.Observation, error) {
	var obs telemetry.Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return telemetry.Observation{}, fmt.Errorf("failed to decode observation: %w", err)
	}
	return obs, nil
}
