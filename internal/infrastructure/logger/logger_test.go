package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

func TestStructuredLogger_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewStructuredLoggerWithOutput("info", "json", &buf)

	log.Info("observation stored",
		logger.NodeID("replica-1"),
		logger.Protocol("pbft"),
		logger.Epoch(3),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "observation stored", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "replica-1", entry["node_id"])
	assert.Equal(t, "pbft", entry["protocol"])
	assert.InDelta(t, 3, entry["epoch"], 0)
	assert.Contains(t, entry, "timestamp")
}

func TestStructuredLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level   string
		logged  []string
		dropped []string
	}{
		{level: "debug", logged: []string{"d", "i", "w", "e"}},
		{level: "info", logged: []string{"i", "w", "e"}, dropped: []string{"d"}},
		{level: "warn", logged: []string{"w", "e"}, dropped: []string{"d", "i"}},
		{level: "error", logged: []string{"e"}, dropped: []string{"d", "i", "w"}},
		{level: "bogus", logged: []string{"i", "w", "e"}, dropped: []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := logger.NewStructuredLoggerWithOutput(tt.level, "console", &buf)
			log.Debug("d")
			log.Info("i")
			log.Warn("w")
			log.Error("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			var messages []string
			for _, line := range lines {
				if _, msg, ok := strings.Cut(line, "] "); ok {
					messages = append(messages, msg)
				}
			}
			assert.Equal(t, tt.logged, messages)
			for _, msg := range tt.dropped {
				assert.NotContains(t, messages, msg)
			}
		})
	}
}

func TestStructuredLogger_FormatSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{format: "json", check: func(t *testing.T, out string) {
			assert.True(t, json.Valid([]byte(out)))
		}},
		{format: "logfmt", check: func(t *testing.T, out string) {
			assert.Contains(t, out, "level=info")
			assert.Contains(t, out, "node_id=r1")
		}},
		{format: "console", check: func(t *testing.T, out string) {
			assert.Equal(t, "[INFO] hello - node_id: r1\n", out)
		}},
		{format: "text", check: func(t *testing.T, out string) {
			assert.Contains(t, out, "msg=hello")
		}},
		{format: "pretty", check: func(t *testing.T, out string) {
			assert.Contains(t, out, "hello")
			assert.Contains(t, out, "r1")
		}},
		{format: "unknown", check: func(t *testing.T, out string) {
			assert.True(t, json.Valid([]byte(out)))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger.NewStructuredLoggerWithOutput("info", tt.format, &buf).Info("hello", logger.NodeID("r1"))
			tt.check(t, buf.String())
		})
	}
}

func TestStructuredLogger_WithDoesNotLeak(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logger.NewStructuredLoggerWithOutput("info", "logfmt", &buf)
	child := base.With(logger.Component("collector"))

	child.Info("child")
	base.Info("base")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "component=collector")
	assert.NotContains(t, lines[1], "component=")
}

func TestFieldHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
	assert.Equal(t, "boom", logger.Error(errors.New("boom")).Value)
	assert.Nil(t, logger.Error(nil).Value)
	assert.Equal(t, "component", logger.Component("x").Key)
	assert.Equal(t, uint64(9), logger.Epoch(9).Value)
	assert.Equal(t, "request_id", logger.RequestID("abc").Key)
	assert.InDelta(t, 0.5, logger.Float("reward", 0.5).Value, 0)
	assert.Equal(t, 4, logger.Int("slots", 4).Value)
}
