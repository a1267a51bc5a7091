package protocols_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/demonshower/BFTBrain/internal/config/modules/protocols"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		catalogue []protocols.ProtocolConfig
		wantErr   bool
	}{
		{name: "defaults", catalogue: protocols.GetDefaults().Catalogue},
		{name: "empty", catalogue: nil, wantErr: true},
		{name: "blank name", catalogue: []protocols.ProtocolConfig{{Name: "  "}}, wantErr: true},
		{
			name:      "duplicate ignoring case",
			catalogue: []protocols.ProtocolConfig{{Name: "PBFT"}, {Name: "pbft"}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := protocols.Config{Catalogue: tt.catalogue}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
