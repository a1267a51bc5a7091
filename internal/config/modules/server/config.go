package server

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Config represents HTTP server configuration.
type Config struct {
	Address  string   `mapstructure:"address"`
	Timeouts Timeouts `mapstructure:"timeouts"`
	// MaxBodyBytes bounds the size of an ingested observation.
	MaxBodyBytes int64 `mapstructure:"maxBodyBytes"`
}

// Timeouts represents server timeout configuration.
type Timeouts struct {
	Read     time.Duration `mapstructure:"read"`
	Write    time.Duration `mapstructure:"write"`
	Idle     time.Duration `mapstructure:"idle"`
	Shutdown time.Duration `mapstructure:"shutdown"`
}

// Validate validates server configuration.
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("server address is required")
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("invalid server address format: %w", err)
	}

	for name, d := range map[string]time.Duration{
		"read":     c.Timeouts.Read,
		"write":    c.Timeouts.Write,
		"idle":     c.Timeouts.Idle,
		"shutdown": c.Timeouts.Shutdown,
	} {
		if d <= 0 {
			return fmt.Errorf("server %s timeout must be positive, got %v", name, d)
		}
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}
