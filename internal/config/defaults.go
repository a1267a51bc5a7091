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
)

// GetDefaults returns complete default configuration.
func GetDefaults() *Config {
	return &Config{
		Metadata:   metadata.GetDefaults(),
		Logging:    logging.GetDefaults(),
		Metrics:    metrics.GetDefaults(),
		Server:     server.GetDefaults(),
		Auth:       auth.GetDefaults(),
		Storage:    storage.GetDefaults(),
		Protocols:  protocols.GetDefaults(),
		Experience: experience.GetDefaults(),
	}
}
