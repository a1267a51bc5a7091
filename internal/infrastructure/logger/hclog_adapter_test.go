package logger_test

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
	"github.com/demonshower/BFTBrain/internal/testutils"
)

func TestHCLogAdapter_LevelMapping(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockLogger()
	adapter := logger.NewHCLogAdapter(mock, "raft")
	adapter.SetLevel(hclog.Trace)

	adapter.Trace("t")
	adapter.Debug("d")
	adapter.Info("i")
	adapter.Warn("w")
	adapter.Error("e")
	adapter.Log(hclog.Off, "off")

	entries := mock.Entries()
	require.Len(t, entries, 5)

	levels := make([]string, 0, len(entries))
	for _, e := range entries {
		levels = append(levels, e.Level)
		assert.Equal(t, "raft", e.Fields["component"])
	}
	assert.Equal(t, []string{"debug", "debug", "info", "warn", "error"}, levels)
}

func TestHCLogAdapter_ThresholdFilters(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockLogger()
	adapter := logger.NewHCLogAdapter(mock, "raft")

	assert.Equal(t, hclog.Info, adapter.GetLevel())
	assert.False(t, adapter.IsDebug())
	assert.True(t, adapter.IsInfo())

	adapter.Debug("hidden")
	adapter.Info("shown")

	entries := mock.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0].Message)
}

func TestHCLogAdapter_WithAndNamed(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockLogger()
	adapter := logger.NewHCLogAdapter(mock, "raft")

	child := adapter.With("peer", "node-2", 42, "dropped", "odd")
	child.Info("append entries")

	named := adapter.Named("snapshot")
	assert.Equal(t, "raft.snapshot", named.Name())
	named.Info("snapshot taken")

	assert.Same(t, adapter, adapter.Named(""))
	assert.Equal(t, "fresh", adapter.ResetNamed("fresh").Name())

	entries := mock.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "node-2", entries[0].Fields["peer"])
	assert.NotContains(t, entries[0].Fields, "dropped")
	assert.Equal(t, "raft.snapshot", entries[1].Fields["subsystem"])
}

func TestHCLogAdapter_StandardWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line      string
		level     string
		message   string
		subsystem any
	}{
		{line: "[INFO] raft: entering leader state\n", level: "info", message: "entering leader state", subsystem: "raft"},
		{line: "[ERR] transport: failed to dial", level: "error", message: "failed to dial", subsystem: "transport"},
		{line: "[WARN] heartbeat timeout reached", level: "warn", message: "heartbeat timeout reached"},
		{line: "[DEBUG] fsm: applied", level: "debug", message: "applied", subsystem: "fsm"},
		{line: "plain message", level: "info", message: "plain message"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			mock := testutils.NewMockLogger()
			writer := logger.NewHCLogAdapter(mock, "raft").StandardWriter(nil)

			n, err := writer.Write([]byte(tt.line))
			require.NoError(t, err)
			assert.Equal(t, len(tt.line), n)

			entries := mock.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, tt.subsystem, entries[0].Fields["subsystem"])
		})
	}
}

func TestHCLogAdapter_StandardLogger(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockLogger()
	std := logger.NewHCLogAdapter(mock, "raft").StandardLogger(nil)
	require.NotNil(t, std)

	std.Print("[WARN] raft: slow follower")
	entries := mock.EntriesAt("warn")
	require.Len(t, entries, 1)
	assert.Equal(t, "slow follower", entries[0].Message)
}
