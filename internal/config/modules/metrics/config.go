package metrics

import (
	"errors"
	"regexp"
	"strings"
)

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config represents Prometheus export configuration.
type Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// Validate validates metrics configuration.
func (m *Config) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Path == "" {
		return errors.New("metrics path is required when metrics are enabled")
	}
	if !strings.HasPrefix(m.Path, "/") {
		return errors.New("metrics path must start with /")
	}
	if !namespacePattern.MatchString(m.Namespace) {
		return errors.New("metrics namespace must be a valid Prometheus metric name prefix")
	}
	return nil
}
