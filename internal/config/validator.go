package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// ValidateConfig validates each module, then cross-module constraints.
func ValidateConfig(config *Config) error {
	modules := []struct {
		name     string
		validate func() error
	}{
		{"metadata", config.Metadata.Validate},
		{"logging", config.Logging.Validate},
		{"metrics", config.Metrics.Validate},
		{"server", config.Server.Validate},
		{"auth", config.Auth.Validate},
		{"storage", config.Storage.Validate},
		{"protocols", config.Protocols.Validate},
		{"experience", config.Experience.Validate},
	}
	for _, m := range modules {
		if err := m.validate(); err != nil {
			return fmt.Errorf("%s validation failed: %w", m.name, err)
		}
	}

	if err := validateCrossModule(config); err != nil {
		return fmt.Errorf("cross-module validation failed: %w", err)
	}
	return nil
}

func validateCrossModule(config *Config) error {
	if config.Metrics.Enabled {
		for _, reserved := range []string{"/api/", "/health", "/ready"} {
			if strings.HasPrefix(config.Metrics.Path, reserved) {
				return fmt.Errorf("metrics path %q collides with the %s route", config.Metrics.Path, reserved)
			}
		}
	}

	if config.StorageType() == domain.StateStorageTypeRaft && !config.Storage.Raft.InMemory {
		for _, peer := range config.Storage.Raft.Peers {
			if strings.HasPrefix(peer, config.Metadata.NodeID+"@") {
				return errors.New("raft peers must not include this node; it is added automatically")
			}
		}
	}

	if config.StorageType() == domain.StateStorageTypeLocal && config.Metadata.Environment == "production" {
		return errors.New("local storage is not allowed in production")
	}
	return nil
}
