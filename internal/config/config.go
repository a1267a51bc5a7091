// Package config loads the BFTBrain service configuration from YAML files and
// BFTBRAIN_* environment variables.
package config

import (
	"github.com/demonshower/BFTBrain/internal/config/modules/auth"
	"github.com/demonshower/BFTBrain/internal/config/modules/experience"
	"github.com/demonshower/BFTBrain/internal/config/modules/logging"
	"github.com/demonshower/BFTBrain/internal/config/modules/metadata"
	"github.com/demonshower/BFTBrain/internal/config/modules/metrics"
	"github.com/demonshower/BFTBrain/internal/config/modules/protocols"
	"github.com/demonshower/BFTBrain/internal/config/modules/server"
	"github.com/demonshower/BFTBrain/internal/config/modules/storage"
	"github.com/demonshower/BFTBrain/internal/domain"
)

// Config is the complete service configuration.
type Config struct {
	Metadata   metadata.Config   `mapstructure:"metadata"`
	Logging    logging.Config    `mapstructure:"logging"`
	Metrics    metrics.Config    `mapstructure:"metrics"`
	Server     server.Config     `mapstructure:"server"`
	Auth       auth.Config       `mapstructure:"auth"`
	Storage    storage.Config    `mapstructure:"storage"`
	Protocols  protocols.Config  `mapstructure:"protocols"`
	Experience experience.Config `mapstructure:"experience"`
}

// Validate validates every module and the constraints between them.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// StorageType returns the configured backend type.
func (c *Config) StorageType() domain.StateStorageType {
	return domain.StateStorageType(c.Storage.Type)
}

// ProtocolList converts the catalogue configuration into domain protocols.
func (c *Config) ProtocolList() []domain.Protocol {
	list := make([]domain.Protocol, 0, len(c.Protocols.Catalogue))
	for _, p := range c.Protocols.Catalogue {
		list = append(list, domain.Protocol{
			Name:              p.Name,
			HasFastPath:       p.FastPath,
			HasLeaderRotation: p.LeaderRotation,
		})
	}
	return list
}
