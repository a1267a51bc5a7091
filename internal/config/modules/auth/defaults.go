package auth

import "time"

// Default authentication configuration values.
const (
	DefaultEnabled = true
	DefaultIssuer  = "bftbrain"
	DefaultLeeway  = 5 * time.Second
)

// GetDefaults returns default authentication configuration. The secret has
// no default and must be supplied when auth is enabled.
func GetDefaults() Config {
	return Config{
		Enabled: DefaultEnabled,
		JWT: JWTConfig{
			Issuer: DefaultIssuer,
			Leeway: DefaultLeeway,
		},
	}
}
