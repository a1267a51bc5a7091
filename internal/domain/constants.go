package domain

import "time"

// Default timeout and duration constants.
const (
	// HTTP timeouts.
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 60 * time.Second

	// Shutdown timeout.
	DefaultShutdownTimeout = 30 * time.Second

	// Buffered channel size for storage watchers.
	DefaultWatchChannelBufferSize = 100

	// Raft timing.
	DefaultRaftHeartbeatTimeout   = time.Second
	DefaultRaftElectionTimeout    = time.Second
	DefaultRaftLeaderLeaseTimeout = 500 * time.Millisecond
	DefaultRaftCommitTimeout      = 50 * time.Millisecond
	DefaultRaftSnapshotRetention  = 2
	DefaultRaftSnapshotThreshold  = 1024
	DefaultRaftTrailingLogs       = 10240

	// Observation queries.
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 1000
)

// Log field and hclog adapter constants.
const (
	LogFieldComponent             = "component"
	DefaultFieldsPerKeyValue      = 2
	DefaultComponentNameMaxLength = 32
	DefaultColonSeparatorOffset   = 2
)
