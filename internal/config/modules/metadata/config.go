package metadata

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxNodeIDLength is the maximum allowed length for a node ID.
const MaxNodeIDLength = 64

var nodeIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Config identifies this service instance.
type Config struct {
	NodeID      string `mapstructure:"nodeId"`
	Environment string `mapstructure:"environment"`
	Region      string `mapstructure:"region"`
}

// Validate validates metadata configuration.
func (m *Config) Validate() error {
	if m.NodeID == "" {
		return errors.New("node ID is required")
	}
	if len(m.NodeID) > MaxNodeIDLength {
		return fmt.Errorf("node ID is too long (max %d characters): %d", MaxNodeIDLength, len(m.NodeID))
	}
	if !nodeIDPattern.MatchString(m.NodeID) {
		return fmt.Errorf("node ID %q contains invalid characters", m.NodeID)
	}
	if m.Environment == "" {
		return errors.New("environment is required")
	}
	return nil
}
