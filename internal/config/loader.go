package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "BFTBRAIN"

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches ./config.yaml, /etc/bftbrain and
// $HOME/.bftbrain; a missing file falls back to defaults and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/bftbrain")
	v.AddConfigPath("$HOME/.bftbrain")
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvironmentVariables(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// envName converts a camelCase viper key into its environment variable,
// e.g. "storage.raft.dataDir" becomes BFTBRAIN_STORAGE_RAFT_DATA_DIR.
func envName(key string) string {
	var b strings.Builder
	b.WriteString(EnvPrefix)
	b.WriteByte('_')
	for i, r := range key {
		switch {
		case r == '.':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 && key[i-1] != '.' {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteString(strings.ToUpper(string(r)))
		}
	}
	return b.String()
}

var envKeys = []string{
	"metadata.nodeId",
	"metadata.environment",
	"metadata.region",

	"logging.level",
	"logging.format",

	"metrics.enabled",
	"metrics.path",
	"metrics.namespace",

	"server.address",
	"server.timeouts.read",
	"server.timeouts.write",
	"server.timeouts.idle",
	"server.timeouts.shutdown",
	"server.maxBodyBytes",

	"auth.enabled",
	"auth.jwt.secret",
	"auth.jwt.issuer",
	"auth.jwt.audience",
	"auth.jwt.leeway",

	"storage.type",
	"storage.redis.address",
	"storage.redis.password",
	"storage.redis.database",
	"storage.redis.keyPrefix",
	"storage.redis.pool.size",
	"storage.redis.pool.minIdle",
	"storage.redis.timeouts.connect",
	"storage.redis.timeouts.read",
	"storage.redis.timeouts.write",
	"storage.redis.retry.maxAttempts",
	"storage.redis.retry.backoff.min",
	"storage.redis.retry.backoff.max",
	"storage.raft.bindAddress",
	"storage.raft.advertiseAddress",
	"storage.raft.dataDir",
	"storage.raft.peers",
	"storage.raft.bootstrap",
	"storage.raft.inMemory",

	"experience.retention",
	"experience.ttl",
	"experience.historyLimit",
	"experience.maxHistoryLimit",
}

func bindEnvironmentVariables(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key, envName(key))
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()

	v.SetDefault("metadata.nodeId", d.Metadata.NodeID)
	v.SetDefault("metadata.environment", d.Metadata.Environment)
	v.SetDefault("metadata.region", d.Metadata.Region)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)

	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.timeouts.read", d.Server.Timeouts.Read.String())
	v.SetDefault("server.timeouts.write", d.Server.Timeouts.Write.String())
	v.SetDefault("server.timeouts.idle", d.Server.Timeouts.Idle.String())
	v.SetDefault("server.timeouts.shutdown", d.Server.Timeouts.Shutdown.String())
	v.SetDefault("server.maxBodyBytes", d.Server.MaxBodyBytes)

	v.SetDefault("auth.enabled", d.Auth.Enabled)
	v.SetDefault("auth.jwt.issuer", d.Auth.JWT.Issuer)
	v.SetDefault("auth.jwt.leeway", d.Auth.JWT.Leeway.String())

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.redis.database", d.Storage.Redis.Database)
	v.SetDefault("storage.redis.keyPrefix", d.Storage.Redis.KeyPrefix)
	v.SetDefault("storage.redis.pool.size", d.Storage.Redis.Pool.Size)
	v.SetDefault("storage.redis.pool.minIdle", d.Storage.Redis.Pool.MinIdle)
	v.SetDefault("storage.redis.timeouts.connect", d.Storage.Redis.Timeouts.Connect.String())
	v.SetDefault("storage.redis.timeouts.read", d.Storage.Redis.Timeouts.Read.String())
	v.SetDefault("storage.redis.timeouts.write", d.Storage.Redis.Timeouts.Write.String())
	v.SetDefault("storage.redis.retry.maxAttempts", d.Storage.Redis.Retry.MaxAttempts)
	v.SetDefault("storage.redis.retry.backoff.min", d.Storage.Redis.Retry.Backoff.Min.String())
	v.SetDefault("storage.redis.retry.backoff.max", d.Storage.Redis.Retry.Backoff.Max.String())
	v.SetDefault("storage.raft.bindAddress", d.Storage.Raft.BindAddress)
	v.SetDefault("storage.raft.dataDir", d.Storage.Raft.DataDir)

	catalogue := make([]map[string]any, 0, len(d.Protocols.Catalogue))
	for _, p := range d.Protocols.Catalogue {
		catalogue = append(catalogue, map[string]any{
			"name":           p.Name,
			"fastPath":       p.FastPath,
			"leaderRotation": p.LeaderRotation,
		})
	}
	v.SetDefault("protocols.catalogue", catalogue)

	v.SetDefault("experience.retention", d.Experience.Retention)
	v.SetDefault("experience.ttl", d.Experience.TTL.String())
	v.SetDefault("experience.historyLimit", d.Experience.HistoryLimit)
	v.SetDefault("experience.maxHistoryLimit", d.Experience.MaxHistoryLimit)
}
