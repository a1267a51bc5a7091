package statestorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
	netutils "github.com/demonshower/BFTBrain/pkg/utils"
)

const (
	raftMaxPool          = 3
	raftTransportTimeout = 10 * time.Second
	raftApplyTimeout     = 10 * time.Second
	raftDataDirMode      = 0o750
)

// RaftStorageConfig holds Raft storage configuration.
type RaftStorageConfig struct {
	NodeID           string
	BindAddress      string
	AdvertiseAddress string
	DataDir          string
	// Peers are "id@host:port" specs of the other voters.
	Peers []string
	// Bootstrap forms a new cluster from this node and Peers when no state exists.
	Bootstrap bool
	// InMemory keeps log, stable and snapshot stores in memory and uses an
	// in-process transport. Intended for single-node development and tests.
	InMemory bool

	HeartbeatTimeout   time.Duration
	ElectionTimeout    time.Duration
	LeaderLeaseTimeout time.Duration
	CommitTimeout      time.Duration
	SnapshotRetention  int
	SnapshotThreshold  uint64
	TrailingLogs       uint64
}

func (c *RaftStorageConfig) applyDefaults() {
	if c.HeartbeatTimeout == 0 {
		c.HeartbeatTimeout = domain.DefaultRaftHeartbeatTimeout
	}
	if c.ElectionTimeout == 0 {
		c.ElectionTimeout = domain.DefaultRaftElectionTimeout
	}
	if c.LeaderLeaseTimeout == 0 {
		c.LeaderLeaseTimeout = domain.DefaultRaftLeaderLeaseTimeout
	}
	if c.CommitTimeout == 0 {
		c.CommitTimeout = domain.DefaultRaftCommitTimeout
	}
	if c.SnapshotRetention == 0 {
		c.SnapshotRetention = domain.DefaultRaftSnapshotRetention
	}
	if c.SnapshotThreshold == 0 {
		c.SnapshotThreshold = domain.DefaultRaftSnapshotThreshold
	}
	if c.TrailingLogs == 0 {
		c.TrailingLogs = domain.DefaultRaftTrailingLogs
	}
}

// RaftStorage replicates state across learning agents with hashicorp/raft.
// Reads are served from the local FSM; writes must go through the leader.
type RaftStorage struct {
	raft      *raft.Raft
	fsm       *raftFSM
	transport raft.Transport
	closers   []func() error
	config    RaftStorageConfig
	address   raft.ServerAddress
	logger    domain.Logger
	closed    chan struct{}
}

// NewRaftStorage starts a raft node.
func NewRaftStorage(config RaftStorageConfig, log domain.Logger) (*RaftStorage, error) {
	if config.NodeID == "" {
		return nil, errors.New("raft node id is required")
	}
	config.applyDefaults()

	peers, err := netutils.ParsePeers(config.Peers)
	if err != nil {
		return nil, err
	}

	hcLogger := logger.NewHCLogAdapter(log, "raft")

	rs := &RaftStorage{
		fsm:    newRaftFSM(log.With(logger.Component("raft-fsm"))),
		config: config,
		logger: log.With(logger.Component("raft-storage")),
		closed: make(chan struct{}),
	}

	var (
		logStore    raft.LogStore
		stableStore raft.StableStore
		snapStore   raft.SnapshotStore
	)
	if config.InMemory {
		store := raft.NewInmemStore()
		logStore, stableStore = store, store
		snapStore = raft.NewInmemSnapshotStore()
		addr, transport := raft.NewInmemTransport(raft.ServerAddress(config.NodeID))
		rs.address, rs.transport = addr, transport
	} else {
		if logStore, stableStore, snapStore, err = rs.openDiskStores(hcLogger); err != nil {
			rs.closeResources()
			return nil, err
		}
		if err = rs.openTCPTransport(hcLogger); err != nil {
			rs.closeResources()
			return nil, err
		}
	}

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(config.NodeID)
	raftConfig.Logger = hcLogger
	raftConfig.HeartbeatTimeout = config.HeartbeatTimeout
	raftConfig.ElectionTimeout = config.ElectionTimeout
	raftConfig.LeaderLeaseTimeout = config.LeaderLeaseTimeout
	raftConfig.CommitTimeout = config.CommitTimeout
	raftConfig.SnapshotThreshold = config.SnapshotThreshold
	raftConfig.TrailingLogs = config.TrailingLogs

	r, err := raft.NewRaft(raftConfig, rs.fsm, logStore, stableStore, snapStore, rs.transport)
	if err != nil {
		rs.closeResources()
		return nil, fmt.Errorf("failed to create raft instance: %w", err)
	}
	rs.raft = r

	if config.Bootstrap {
		if err := rs.bootstrap(logStore, stableStore, snapStore, peers); err != nil {
			_ = rs.Close()
			return nil, err
		}
	}

	rs.logger.Info("Raft storage initialized",
		logger.NodeID(config.NodeID),
		logger.String("address", string(rs.address)),
		logger.Int("peers", len(peers)),
		domain.Field{Key: "in_memory", Value: config.InMemory})

	return rs, nil
}

func (rs *RaftStorage) openDiskStores(
	hcLogger hclog.Logger,
) (raft.LogStore, raft.StableStore, raft.SnapshotStore, error) {
	if err := os.MkdirAll(rs.config.DataDir, raftDataDirMode); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(rs.config.DataDir, "raft-log.db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create log store: %w", err)
	}
	rs.closers = append(rs.closers, logStore.Close)

	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(rs.config.DataDir, "raft-stable.db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create stable store: %w", err)
	}
	rs.closers = append(rs.closers, stableStore.Close)

	snapStore, err := raft.NewFileSnapshotStoreWithLogger(rs.config.DataDir, rs.config.SnapshotRetention, hcLogger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	return logStore, stableStore, snapStore, nil
}

func (rs *RaftStorage) openTCPTransport(hcLogger hclog.Logger) error {
	advertise, err := netutils.AdvertiseAddress(rs.config.BindAddress, rs.config.AdvertiseAddress)
	if err != nil {
		return err
	}
	tcpAddr, err := net.ResolveTCPAddr("tcp", advertise)
	if err != nil {
		return fmt.Errorf("failed to resolve advertise address: %w", err)
	}

	transport, err := raft.NewTCPTransportWithLogger(
		rs.config.BindAddress, tcpAddr, raftMaxPool, raftTransportTimeout, hcLogger)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}
	rs.transport = transport
	rs.address = transport.LocalAddr()
	rs.closers = append(rs.closers, transport.Close)
	return nil
}

func (rs *RaftStorage) bootstrap(
	logStore raft.LogStore,
	stableStore raft.StableStore,
	snapStore raft.SnapshotStore,
	peers []netutils.Peer,
) error {
	hasState, err := raft.HasExistingState(logStore, stableStore, snapStore)
	if err != nil {
		return fmt.Errorf("failed to check existing state: %w", err)
	}
	if hasState {
		rs.logger.Info("Existing raft state found, skipping bootstrap")
		return nil
	}

	servers := []raft.Server{{
		ID:      raft.ServerID(rs.config.NodeID),
		Address: rs.address,
	}}
	for _, p := range peers {
		if p.ID == rs.config.NodeID {
			continue
		}
		servers = append(servers, raft.Server{ID: raft.ServerID(p.ID), Address: raft.ServerAddress(p.Address)})
	}

	if err := rs.raft.BootstrapCluster(raft.Configuration{Servers: servers}).Error(); err != nil {
		return fmt.Errorf("failed to bootstrap cluster: %w", err)
	}
	rs.logger.Info("Bootstrapped raft cluster", logger.Int("servers", len(servers)))
	return nil
}

// WaitForLeader blocks until the cluster has a leader or ctx is done.
func (rs *RaftStorage) WaitForLeader(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if addr, _ := rs.raft.LeaderWithID(); addr != "" {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for raft leader: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// IsLeader reports whether this node currently leads the cluster.
func (rs *RaftStorage) IsLeader() bool {
	return rs.raft.State() == raft.Leader
}

func (rs *RaftStorage) Get(_ context.Context, key string) ([]byte, error) {
	if rs.isClosed() {
		return nil, domain.ErrStorageUnavailable
	}
	value, ok := rs.fsm.get(key, time.Now())
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return value, nil
}

func (rs *RaftStorage) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return rs.apply(raftCommand{Type: raftCommandSet, Key: key, Value: value, TTL: ttl})
}

func (rs *RaftStorage) Delete(_ context.Context, key string) error {
	return rs.apply(raftCommand{Type: raftCommandDelete, Key: key})
}

func (rs *RaftStorage) GetMultiple(_ context.Context, keys []string) (map[string][]byte, error) {
	if rs.isClosed() {
		return nil, domain.ErrStorageUnavailable
	}
	now := time.Now()
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := rs.fsm.get(key, now); ok {
			result[key] = value
		}
	}
	return result, nil
}

// SetMultiple applies all items as one log entry.
func (rs *RaftStorage) SetMultiple(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	return rs.apply(raftCommand{Type: raftCommandSetMultiple, Items: items, TTL: ttl})
}

// Watch delivers changes applied by the FSM, whichever node proposed them.
func (rs *RaftStorage) Watch(ctx context.Context, keyPrefix string) (<-chan domain.StateEvent, error) {
	if rs.isClosed() {
		return nil, domain.ErrStorageUnavailable
	}

	ch := rs.fsm.watchers.add(keyPrefix)
	go func() {
		select {
		case <-ctx.Done():
		case <-rs.closed:
		}
		rs.fsm.watchers.remove(ch)
	}()
	return ch, nil
}

func (rs *RaftStorage) Close() error {
	select {
	case <-rs.closed:
		return nil
	default:
		close(rs.closed)
	}

	var errs []error
	if rs.raft != nil {
		if err := rs.raft.Shutdown().Error(); err != nil {
			errs = append(errs, fmt.Errorf("raft shutdown: %w", err))
		}
	}
	rs.fsm.watchers.closeAll()
	errs = append(errs, rs.closeResources())

	rs.logger.Info("Raft storage closed")
	return errors.Join(errs...)
}

func (rs *RaftStorage) closeResources() error {
	var errs []error
	for i := len(rs.closers) - 1; i >= 0; i-- {
		if err := rs.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rs.closers = nil
	return errors.Join(errs...)
}

// Ping fails when the node is shut down or no leader is known.
func (rs *RaftStorage) Ping(_ context.Context) error {
	if rs.isClosed() || rs.raft.State() == raft.Shutdown {
		return domain.ErrStorageUnavailable
	}
	if addr, _ := rs.raft.LeaderWithID(); addr == "" {
		return fmt.Errorf("%w: no raft leader", domain.ErrStorageUnavailable)
	}
	return nil
}

// Stats returns raft state for diagnostics.
func (rs *RaftStorage) Stats() map[string]string {
	return rs.raft.Stats()
}

func (rs *RaftStorage) apply(cmd raftCommand) error {
	if rs.isClosed() {
		return domain.ErrStorageUnavailable
	}
	if rs.raft.State() != raft.Leader {
		leader, _ := rs.raft.LeaderWithID()
		return fmt.Errorf("%w: leader is %q", domain.ErrNotLeader, leader)
	}

	cmd.NodeID = rs.config.NodeID
	cmd.Timestamp = time.Now()

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to encode raft command: %w", err)
	}

	future := rs.raft.Apply(data, raftApplyTimeout)
	if err := future.Error(); err != nil {
		if errors.Is(err, raft.ErrNotLeader) || errors.Is(err, raft.ErrLeadershipLost) {
			return fmt.Errorf("%w: %w", domain.ErrNotLeader, err)
		}
		return fmt.Errorf("failed to apply raft command: %w", err)
	}
	if applyErr, ok := future.Response().(error); ok && applyErr != nil {
		return applyErr
	}
	return nil
}

func (rs *RaftStorage) isClosed() bool {
	select {
	case <-rs.closed:
		return true
	default:
		return false
	}
}
