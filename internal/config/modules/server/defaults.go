package server

import (
	"github.com/demonshower/BFTBrain/internal/domain"
)

// Default server configuration values.
const (
	DefaultAddress      = "0.0.0.0:8080"
	DefaultMaxBodyBytes = 64 << 10
)

// GetDefaults returns default server configuration.
func GetDefaults() Config {
	return Config{
		Address: DefaultAddress,
		Timeouts: Timeouts{
			Read:     domain.DefaultReadTimeout,
			Write:    domain.DefaultWriteTimeout,
			Idle:     domain.DefaultIdleTimeout,
			Shutdown: domain.DefaultShutdownTimeout,
		},
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}
