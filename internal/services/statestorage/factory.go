package statestorage

import (
	"fmt"

	"github.com/demonshower/BFTBrain/internal/config/modules/storage"
	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

// NewStateStorage creates the backend selected by cfg.Type.
func NewStateStorage(cfg storage.Config, nodeID string, log domain.Logger) (domain.StateStorage, error) {
	switch domain.StateStorageType(cfg.Type) {
	case domain.StateStorageTypeLocal:
		log.Info("Creating local state storage", logger.NodeID(nodeID))
		return NewLocalStorage(nodeID), nil

	case domain.StateStorageTypeRedis:
		r := cfg.Redis
		log.Info("Creating Redis state storage",
			logger.String("address", r.Address),
			logger.Int("database", r.Database),
			logger.NodeID(nodeID))

		return NewRedisStorage(RedisStorageConfig{
			Address:         r.Address,
			Password:        r.Password,
			Database:        r.Database,
			KeyPrefix:       r.KeyPrefix,
			ConnectTimeout:  r.Timeouts.Connect,
			ReadTimeout:     r.Timeouts.Read,
			WriteTimeout:    r.Timeouts.Write,
			PoolSize:        r.Pool.Size,
			MinIdleConns:    r.Pool.MinIdle,
			MaxRetries:      r.Retry.MaxAttempts,
			MinRetryBackoff: r.Retry.Backoff.Min,
			MaxRetryBackoff: r.Retry.Backoff.Max,
		}, nodeID, log)

	case domain.StateStorageTypeRaft:
		r := cfg.Raft
		log.Info("Creating Raft state storage",
			logger.NodeID(nodeID),
			logger.String("data_dir", r.DataDir),
			logger.Int("peers", len(r.Peers)),
			domain.Field{Key: "in_memory", Value: r.InMemory})

		// An in-memory node has no peers and nothing to recover, so it
		// always forms its own single-voter cluster.
		return NewRaftStorage(RaftStorageConfig{
			NodeID:           nodeID,
			BindAddress:      r.BindAddress,
			AdvertiseAddress: r.AdvertiseAddress,
			DataDir:          r.DataDir,
			Peers:            r.Peers,
			Bootstrap:        r.Bootstrap || r.InMemory,
			InMemory:         r.InMemory,
		}, log)

	default:
		return nil, fmt.Errorf("unsupported state storage type: %s", cfg.Type)
	}
}
