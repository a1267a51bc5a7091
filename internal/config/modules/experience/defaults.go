package experience

import "github.com/demonshower/BFTBrain/internal/domain"

// Default experience configuration values.
const (
	DefaultRetention = 1000
	DefaultTTL       = 0
)

// GetDefaults returns default experience store configuration.
func GetDefaults() Config {
	return Config{
		Retention:       DefaultRetention,
		TTL:             DefaultTTL,
		HistoryLimit:    domain.DefaultHistoryLimit,
		MaxHistoryLimit: domain.MaxHistoryLimit,
	}
}
