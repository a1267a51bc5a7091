package telemetry_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demonshower/BFTBrain/internal/features"
	"github.com/demonshower/BFTBrain/internal/telemetry"
)

func TestVector_GetSet(t *testing.T) {
	t.Parallel()

	var v telemetry.Vector
	require.NoError(t, v.Set(features.RequestSize, 512))

	got, err := v.Get(features.RequestSize)
	require.NoError(t, err)
	assert.InDelta(t, 512, got, 0)
	assert.InDelta(t, 512, v[2], 0)

	_, err = v.Get(features.Reward)
	require.ErrorIs(t, err, telemetry.ErrNotAColumn)
	require.ErrorIs(t, v.Set(features.Index(features.Dimension), 1), telemetry.ErrNotAColumn)
}

func TestVector_JSONUsesWireNames(t *testing.T) {
	t.Parallel()

	v := telemetry.Vector{0.75, 12.5, 256, 1, 0, 9}
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var raw map[string]float64
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]float64{
		"FAST_PATH_FREQUENCY":       0.75,
		"SLOWNESS_OF_PROPOSAL":      12.5,
		"REQUEST_SIZE":              256,
		"HAS_FAST_PATH":             1,
		"HAS_LEADER_ROTATION":       0,
		"RECEIVED_MESSAGE_PER_SLOT": 9,
	}, raw)

	var decoded telemetry.Vector
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, v, decoded)
}

func TestVector_UnmarshalRejects(t *testing.T) {
	t.Parallel()

	full := `"FAST_PATH_FREQUENCY":0,"SLOWNESS_OF_PROPOSAL":0,"REQUEST_SIZE":0,` +
		`"HAS_FAST_PATH":0,"HAS_LEADER_ROTATION":0,"RECEIVED_MESSAGE_PER_SLOT":0`

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "missing column", input: `{"FAST_PATH_FREQUENCY":0}`, wantErr: telemetry.ErrMissingColumn},
		{name: "reward key", input: `{` + full + `,"REWARD":3}`, wantErr: telemetry.ErrNotAColumn},
		{name: "unknown key", input: `{` + full + `,"LATENCY":3}`, wantErr: features.ErrUnknownFeature},
		{
			name:    "same column in another case",
			input:   `{` + full + `,"fast_path_frequency":0.9}`,
			wantErr: telemetry.ErrDuplicateColumn,
		},
		{
			name:    "same column with padding",
			input:   `{` + full + `," REQUEST_SIZE ":512}`,
			wantErr: telemetry.ErrDuplicateColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var v telemetry.Vector
			require.ErrorIs(t, json.Unmarshal([]byte(tt.input), &v), tt.wantErr)
		})
	}

	var v telemetry.Vector
	require.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &v))
	require.NoError(t, json.Unmarshal([]byte(`{`+full+`}`), &v))
	require.NoError(t, json.Unmarshal([]byte(`{"fast_path_frequency":0.5,"slowness_of_proposal":0,`+
		`"request_size":0,"has_fast_path":0,"has_leader_rotation":0,"received_message_per_slot":0}`), &v))
	assert.InDelta(t, 0.5, v[features.FastPathFrequency], 0)
}

func TestVector_Slice(t *testing.T) {
	t.Parallel()

	v := telemetry.Vector{1, 2, 3, 1, 0, 6}
	s := v.Slice()
	s[0] = 99
	assert.InDelta(t, 1, v[0], 0)
	assert.Len(t, s, features.Dimension)
}
