package protocols

import (
	"errors"
	"fmt"
	"strings"
)

// Config lists the protocols replicas may report under.
type Config struct {
	Catalogue []ProtocolConfig `mapstructure:"catalogue"`
}

// ProtocolConfig describes one protocol and its static traits.
type ProtocolConfig struct {
	Name           string `mapstructure:"name"`
	FastPath       bool   `mapstructure:"fastPath"`
	LeaderRotation bool   `mapstructure:"leaderRotation"`
}

// Validate validates protocol catalogue configuration.
func (c *Config) Validate() error {
	if len(c.Catalogue) == 0 {
		return errors.New("protocol catalogue must not be empty")
	}

	seen := make(map[string]bool, len(c.Catalogue))
	for i, p := range c.Catalogue {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return fmt.Errorf("protocol %d: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("protocol %q is listed twice", name)
		}
		seen[name] = true
	}
	return nil
}
