package logging

import (
	"fmt"
	"slices"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// Config represents logging configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	validLevels = []string{
		string(domain.LogLevelDebug),
		string(domain.LogLevelInfo),
		string(domain.LogLevelWarn),
		string(domain.LogLevelError),
	}
	validFormats = []string{
		string(domain.LogFormatJSON),
		string(domain.LogFormatText),
		string(domain.LogFormatLogFmt),
		string(domain.LogFormatPretty),
		string(domain.LogFormatConsole),
	}
)

// Validate validates logging configuration.
func (l *Config) Validate() error {
	if !slices.Contains(validLevels, l.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", l.Level, validLevels)
	}
	if !slices.Contains(validFormats, l.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", l.Format, validFormats)
	}
	return nil
}
