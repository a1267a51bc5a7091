package experience

import (
	"fmt"
	"time"
)

// Config controls how many observations are kept per replica.
type Config struct {
	// Retention is the number of epochs kept per node.
	Retention int `mapstructure:"retention"`
	// TTL expires stored observations; zero keeps them until evicted.
	TTL time.Duration `mapstructure:"ttl"`
	// HistoryLimit is the page size when a query gives none.
	HistoryLimit int `mapstructure:"historyLimit"`
	// MaxHistoryLimit caps any requested page size.
	MaxHistoryLimit int `mapstructure:"maxHistoryLimit"`
}

// Validate validates experience store configuration.
func (c *Config) Validate() error {
	if c.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %d", c.Retention)
	}
	if c.TTL < 0 {
		return fmt.Errorf("ttl cannot be negative, got %v", c.TTL)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	if c.MaxHistoryLimit < c.HistoryLimit {
		return fmt.Errorf("max history limit (%d) cannot be below history limit (%d)", c.MaxHistoryLimit, c.HistoryLimit)
	}
	return nil
}
