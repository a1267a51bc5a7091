package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/demonshower/BFTBrain/internal/config/modules/auth"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	longSecret := strings.Repeat("s", auth.MinSecretLength)

	tests := []struct {
		name    string
		config  auth.Config
		wantErr bool
	}{
		{name: "disabled", config: auth.Config{}},
		{name: "defaults lack secret", config: auth.GetDefaults(), wantErr: true},
		{name: "valid", config: auth.Config{Enabled: true, JWT: auth.JWTConfig{Secret: longSecret}}},
		{
			name:    "short secret",
			config:  auth.Config{Enabled: true, JWT: auth.JWTConfig{Secret: longSecret[1:]}},
			wantErr: true,
		},
		{
			name:    "negative leeway",
			config:  auth.Config{Enabled: true, JWT: auth.JWTConfig{Secret: longSecret, Leeway: -time.Second}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
