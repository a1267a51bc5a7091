package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demonshower/BFTBrain/internal/config"
	"github.com/demonshower/BFTBrain/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(body)+"\n"), 0o600))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
metadata:
  nodeId: replica-7
  environment: staging
logging:
  level: debug
  format: logfmt
server:
  address: 127.0.0.1:9090
  timeouts:
    read: 2s
auth:
  jwt:
    secret: `+testSecret+`
    audience: bftbrain-agents
storage:
  type: raft
  raft:
    bindAddress: 127.0.0.1:7100
    dataDir: /tmp/raft
    peers:
      - replica-8@127.0.0.1:7101
    bootstrap: true
protocols:
  catalogue:
    - name: PBFT
    - name: Zyzzyva
      fastPath: true
experience:
  retention: 50
  ttl: 1h
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "replica-7", cfg.Metadata.NodeID)
	assert.Equal(t, "staging", cfg.Metadata.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "logfmt", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
	assert.Equal(t, 2*time.Second, cfg.Server.Timeouts.Read)
	assert.Equal(t, domain.DefaultWriteTimeout, cfg.Server.Timeouts.Write)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "bftbrain-agents", cfg.Auth.JWT.Audience)
	assert.Equal(t, "bftbrain", cfg.Auth.JWT.Issuer)
	assert.Equal(t, domain.StateStorageTypeRaft, cfg.StorageType())
	assert.Equal(t, []string{"replica-8@127.0.0.1:7101"}, cfg.Storage.Raft.Peers)
	assert.True(t, cfg.Storage.Raft.Bootstrap)
	assert.Equal(t, 50, cfg.Experience.Retention)
	assert.Equal(t, time.Hour, cfg.Experience.TTL)
	assert.Equal(t, domain.DefaultHistoryLimit, cfg.Experience.HistoryLimit)

	protocols := cfg.ProtocolList()
	require.Len(t, protocols, 2)
	assert.Equal(t, "PBFT", protocols[0].Name)
	assert.False(t, protocols[0].HasFastPath)
	assert.True(t, protocols[1].HasFastPath)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
metadata:
  nodeId: from-file
auth:
  jwt:
    secret: `+testSecret+`
`)

	t.Setenv("BFTBRAIN_METADATA_NODE_ID", "from-env")
	t.Setenv("BFTBRAIN_LOGGING_LEVEL", "warn")
	t.Setenv("BFTBRAIN_SERVER_MAX_BODY_BYTES", "1024")
	t.Setenv("BFTBRAIN_EXPERIENCE_HISTORY_LIMIT", "7")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Metadata.NodeID)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, int64(1024), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 7, cfg.Experience.HistoryLimit)
}

func TestLoadConfig_DefaultsOnly(t *testing.T) {
	t.Setenv("BFTBRAIN_AUTH_JWT_SECRET", testSecret)

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	defaults := config.GetDefaults()
	assert.Equal(t, defaults.Metadata, cfg.Metadata)
	assert.Equal(t, defaults.Server, cfg.Server)
	assert.Equal(t, defaults.Experience, cfg.Experience)
	assert.Equal(t, defaults.Protocols, cfg.Protocols)
	assert.Equal(t, testSecret, cfg.Auth.JWT.Secret)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: true
  jwt:
    secret: short
`)

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth validation failed")
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "metadata: [unterminated")

	_, err := config.LoadConfig(path)
	require.ErrorContains(t, err, "failed to read config file")
}
