package auth

import (
	"errors"
	"fmt"
	"time"
)

// MinSecretLength is the shortest accepted HS256 secret.
const MinSecretLength = 32

// Config represents replica authentication configuration.
type Config struct {
	Enabled bool      `mapstructure:"enabled"`
	JWT     JWTConfig `mapstructure:"jwt"`
}

// JWTConfig configures HS256 token verification.
type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	Leeway   time.Duration `mapstructure:"leeway"`
}

// Validate validates authentication configuration. A disabled
// configuration is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return c.JWT.Validate()
}

// Validate validates JWT configuration.
func (j *JWTConfig) Validate() error {
	if j.Secret == "" {
		return errors.New("jwt secret is required when auth is enabled")
	}
	if len(j.Secret) < MinSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinSecretLength, len(j.Secret))
	}
	if j.Leeway < 0 {
		return fmt.Errorf("jwt leeway cannot be negative, got %v", j.Leeway)
	}
	return nil
}
