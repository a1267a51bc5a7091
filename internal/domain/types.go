// Package domain contains core types and interfaces shared across services.
package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/demonshower/BFTBrain/internal/features"
)

// Protocol describes a BFT protocol and the static traits exported as
// binary feature columns.
type Protocol struct {
	Name              string `json:"name"`
	HasFastPath       bool   `json:"has_fast_path"`
	HasLeaderRotation bool   `json:"has_leader_rotation"`
}

// Traits returns the fast path and leader rotation traits as 0/1 column values.
func (p Protocol) Traits() (float64, float64) {
	return boolToFloat(p.HasFastPath), boolToFloat(p.HasLeaderRotation)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Replica is an authenticated replica allowed to submit observations.
type Replica struct {
	NodeID    string    `json:"node_id"`
	Issuer    string    `json:"issuer,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService authenticates replicas.
type AuthService interface {
	Authenticate(ctx context.Context, token string) (*Replica, error)
}

// MetricsService handles metrics collection.
type MetricsService interface {
	RecordRequest(ctx context.Context, method, route, status string, duration time.Duration)
	RecordAuthAttempt(ctx context.Context, status string)
	RecordObservation(
		ctx context.Context,
		nodeID, protocol string,
		columns [features.Dimension]float64,
		reward float64,
	)
	RecordRejectedObservation(ctx context.Context, nodeID, reason string)

	Handler() http.Handler
}

// Logger provides structured logging interface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// LogFormatJSON outputs logs in JSON format (default for production).
	LogFormatJSON LogFormat = "json"
	// LogFormatText outputs logs with the logrus text formatter.
	LogFormatText LogFormat = "text"
	// LogFormatLogFmt outputs logs in logfmt format (structured key=value pairs).
	LogFormatLogFmt LogFormat = "logfmt"
	// LogFormatPretty outputs logs in human-readable format with colors (development).
	LogFormatPretty LogFormat = "pretty"
	// LogFormatConsole outputs logs in simple console format (minimal output).
	LogFormatConsole LogFormat = "console"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// StateStorageType defines the type of state storage backend.
type StateStorageType string

const (
	StateStorageTypeLocal StateStorageType = "local"
	StateStorageTypeRedis StateStorageType = "redis"
	StateStorageTypeRaft  StateStorageType = "raft"
)

// StateEventType represents the type of state change event.
type StateEventType int

const (
	// StateEventSet indicates a key was set or updated.
	StateEventSet StateEventType = iota
	// StateEventDelete indicates a key was deleted.
	StateEventDelete
)

// String returns the string representation of the state event type.
func (set StateEventType) String() string {
	switch set {
	case StateEventSet:
		return "SET"
	case StateEventDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// StateEvent represents a change in stored state.
type StateEvent struct {
	Type      StateEventType `json:"type"`
	Key       string         `json:"key"`
	Value     []byte         `json:"value,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	NodeID    string         `json:"node_id"`
}

// IsValid validates the state event.
func (se StateEvent) IsValid() bool {
	return se.Key != "" && se.NodeID != "" && !se.Timestamp.IsZero()
}

// StateStorage provides key/value state management.
type StateStorage interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value with optional TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key.
	Delete(ctx context.Context, key string) error
	// GetMultiple retrieves multiple values; missing keys are omitted.
	GetMultiple(ctx context.Context, keys []string) (map[string][]byte, error)
	// SetMultiple stores multiple values.
	SetMultiple(ctx context.Context, items map[string][]byte, ttl time.Duration) error
	// Watch observes changes to keys matching the prefix.
	Watch(ctx context.Context, keyPrefix string) (<-chan StateEvent, error)
	// Close performs cleanup and graceful shutdown.
	Close() error
	// Ping checks the health of the storage system.
	Ping(ctx context.Context) error
}

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusReady    HealthStatus = "ready"
	HealthStatusDegraded HealthStatus = "degraded"
)

// ContextKey defines custom type for context keys to avoid collisions.
type ContextKey string

const (
	// RequestIDKey is the context key for request ID.
	RequestIDKey ContextKey = "request_id"
	// ReplicaKey is the context key for the authenticated replica.
	ReplicaKey ContextKey = "replica"
)
