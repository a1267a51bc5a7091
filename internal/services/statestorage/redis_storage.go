package statestorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

const (
	defaultRedisConnectTimeout = 5 * time.Second
	defaultRedisReadTimeout    = 3 * time.Second
	defaultRedisWriteTimeout   = 3 * time.Second
	defaultRedisPoolSize       = 10
	defaultRedisMinIdleConns   = 2
	defaultRedisKeyPrefix      = "bftbrain:"
	redisEventsChannelSuffix   = "events"
)

// RedisStorageConfig holds configuration for Redis storage.
type RedisStorageConfig struct {
	Address         string
	Password        string
	Database        int
	KeyPrefix       string
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
}

func (c *RedisStorageConfig) applyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultRedisKeyPrefix
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultRedisConnectTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultRedisReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultRedisWriteTimeout
	}
	if c.PoolSize == 0 {
		c.PoolSize = defaultRedisPoolSize
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = defaultRedisMinIdleConns
	}
}

// RedisStorage shares state between service instances through Redis.
// Changes are fanned out to other instances over a pub/sub channel.
type RedisStorage struct {
	client  *redis.Client
	config  RedisStorageConfig
	nodeID  string
	logger  domain.Logger
	pubsub  *redis.PubSub
	channel string

	watchers *watcherSet

	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewRedisStorage connects to Redis and subscribes to the event channel.
func NewRedisStorage(config RedisStorageConfig, nodeID string, log domain.Logger) (*RedisStorage, error) {
	if config.Address == "" {
		return nil, errors.New("redis address is required")
	}
	config.applyDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:            config.Address,
		Password:        config.Password,
		DB:              config.Database,
		MaxRetries:      config.MaxRetries,
		MinRetryBackoff: config.MinRetryBackoff,
		MaxRetryBackoff: config.MaxRetryBackoff,
		DialTimeout:     config.ConnectTimeout,
		ReadTimeout:     config.ReadTimeout,
		WriteTimeout:    config.WriteTimeout,
		PoolSize:        config.PoolSize,
		MinIdleConns:    config.MinIdleConns,
		PoolTimeout:     config.ConnectTimeout,
		ConnMaxIdleTime: 30 * time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	rs := &RedisStorage{
		client:   client,
		config:   config,
		nodeID:   nodeID,
		logger:   log.With(logger.Component("redis-storage")),
		channel:  config.KeyPrefix + redisEventsChannelSuffix,
		watchers: newWatcherSet(),
		done:     make(chan struct{}),
	}

	rs.pubsub = client.Subscribe(ctx, rs.channel)
	if _, err := rs.pubsub.Receive(ctx); err != nil {
		_ = rs.pubsub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", rs.channel, err)
	}
	go rs.consumeEvents()

	rs.logger.Info("Redis storage initialized",
		logger.String("address", config.Address),
		logger.Int("database", config.Database),
		logger.String("key_prefix", config.KeyPrefix),
		logger.NodeID(nodeID))

	return rs, nil
}

func (rs *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := rs.checkClosed(); err != nil {
		return nil, err
	}

	value, err := rs.client.Get(ctx, rs.formatKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

func (rs *RedisStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := rs.checkClosed(); err != nil {
		return err
	}

	if err := rs.client.Set(ctx, rs.formatKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}

	rs.emit(ctx, domain.StateEvent{
		Type:      domain.StateEventSet,
		Key:       key,
		Value:     value,
		Timestamp: time.Now(),
		NodeID:    rs.nodeID,
	})
	return nil
}

func (rs *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := rs.checkClosed(); err != nil {
		return err
	}

	deleted, err := rs.client.Del(ctx, rs.formatKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	if deleted > 0 {
		rs.emit(ctx, domain.StateEvent{
			Type:      domain.StateEventDelete,
			Key:       key,
			Timestamp: time.Now(),
			NodeID:    rs.nodeID,
		})
	}
	return nil
}

// GetMultiple reads all keys in one pipeline; missing keys are omitted.
func (rs *RedisStorage) GetMultiple(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := rs.checkClosed(); err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	pipe := rs.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, rs.formatKey(key))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to execute pipeline GET: %w", err)
	}

	for i, cmd := range cmds {
		if value, err := cmd.Bytes(); err == nil {
			result[keys[i]] = value
		}
	}
	return result, nil
}

// SetMultiple writes all items in one transaction.
func (rs *RedisStorage) SetMultiple(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if err := rs.checkClosed(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	pipe := rs.client.TxPipeline()
	for key, value := range items {
		pipe.Set(ctx, rs.formatKey(key), value, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute pipeline SET: %w", err)
	}

	now := time.Now()
	for key, value := range items {
		rs.emit(ctx, domain.StateEvent{
			Type:      domain.StateEventSet,
			Key:       key,
			Value:     value,
			Timestamp: now,
			NodeID:    rs.nodeID,
		})
	}
	return nil
}

// Watch delivers local and remote changes to keys starting with keyPrefix.
func (rs *RedisStorage) Watch(ctx context.Context, keyPrefix string) (<-chan domain.StateEvent, error) {
	if err := rs.checkClosed(); err != nil {
		return nil, err
	}

	ch := rs.watchers.add(keyPrefix)
	go func() {
		select {
		case <-ctx.Done():
		case <-rs.done:
		}
		rs.watchers.remove(ch)
	}()

	return ch, nil
}

func (rs *RedisStorage) Close() error {
	var closeErr error
	rs.closeOnce.Do(func() {
		rs.closeMu.Lock()
		rs.closed = true
		rs.closeMu.Unlock()
		close(rs.done)

		if err := rs.pubsub.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close pub/sub: %w", err)
		}
		rs.watchers.closeAll()
		if err := rs.client.Close(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to close Redis client: %w", err)
		}

		rs.logger.Info("Redis storage closed", logger.NodeID(rs.nodeID))
	})
	return closeErr
}

func (rs *RedisStorage) Ping(ctx context.Context) error {
	if err := rs.checkClosed(); err != nil {
		return err
	}
	if err := rs.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (rs *RedisStorage) formatKey(key string) string {
	return rs.config.KeyPrefix + key
}

func (rs *RedisStorage) checkClosed() error {
	rs.closeMu.RLock()
	defer rs.closeMu.RUnlock()

	if rs.closed {
		return domain.ErrStorageUnavailable
	}
	return nil
}

// emit notifies local watchers and publishes the event for other instances.
func (rs *RedisStorage) emit(ctx context.Context, event domain.StateEvent) {
	rs.notify(event)

	payload, err := json.Marshal(event)
	if err != nil {
		rs.logger.Error("Failed to encode state event", logger.Error(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rs.config.WriteTimeout)
	defer cancel()
	if err := rs.client.Publish(pubCtx, rs.channel, payload).Err(); err != nil {
		rs.logger.Warn("Failed to publish state event",
			logger.String("key", event.Key),
			logger.Error(err))
	}
}

// consumeEvents forwards events published by other instances until Close.
func (rs *RedisStorage) consumeEvents() {
	messages := rs.pubsub.Channel()
	for {
		select {
		case <-rs.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			rs.handleMessage(msg)
		}
	}
}

func (rs *RedisStorage) handleMessage(msg *redis.Message) {
	var event domain.StateEvent
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		rs.logger.Warn("Failed to decode state event", logger.Error(err))
		return
	}
	if event.NodeID == rs.nodeID || !event.IsValid() {
		return
	}
	rs.notify(event)
}

func (rs *RedisStorage) notify(event domain.StateEvent) {
	if dropped := rs.watchers.notify(event); dropped > 0 {
		rs.logger.Warn("State event channel full, dropping event",
			logger.String("key", event.Key),
			logger.Int("dropped", dropped))
	}
}
