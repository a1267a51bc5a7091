package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/demonshower/BFTBrain/internal/config"
	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
	"github.com/demonshower/BFTBrain/internal/server"
	"github.com/demonshower/BFTBrain/internal/services/auth"
	"github.com/demonshower/BFTBrain/internal/services/experience"
	"github.com/demonshower/BFTBrain/internal/services/metrics"
	"github.com/demonshower/BFTBrain/internal/services/protocols"
	"github.com/demonshower/BFTBrain/internal/services/statestorage"
)

// leaderWaiter is implemented by storage backends that elect a leader.
type leaderWaiter interface {
	WaitForLeader(ctx context.Context) error
}

func serveCommand() *cobra.Command {
	var configPath, logLevel string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Runs the feature registry and experience service",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath, logLevel)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, configPath)
		},
	}

	flags := c.Flags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	return c
}

func validateConfigCommand() *cobra.Command {
	var configPath string

	c := &cobra.Command{
		Use:   "validate-config",
		Short: "Validates configuration and exits",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if _, err := loadConfig(configPath, ""); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(c.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}
	c.Flags().StringVar(&configPath, "config", "", "Path to configuration file")
	return c
}

func loadConfig(path, logLevel string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Logging.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

//nolint:funlen
func serve(ctx context.Context, cfg *config.Config, configPath string) error {
	appLogger := logger.NewStructuredLogger(cfg.Logging.Level, cfg.Logging.Format)

	appLogger.Info("Starting bftbrain",
		logger.String("version", version),
		logger.String("build_time", buildTime),
		logger.String("git_commit", gitCommit),
		logger.String("config_path", configPath),
		logger.String("server_address", cfg.Server.Address),
		logger.String("storage_type", cfg.Storage.Type),
		logger.Int("protocols", len(cfg.Protocols.Catalogue)),
		logger.NodeID(cfg.Metadata.NodeID),
		logger.String("environment", cfg.Metadata.Environment),
	)

	metricsService := metrics.NewService(cfg.Metrics.Namespace, appLogger)

	catalogue, err := protocols.NewCatalogue(cfg.ProtocolList())
	if err != nil {
		return fmt.Errorf("failed to build protocol catalogue: %w", err)
	}

	stateStorage, err := statestorage.NewStateStorage(cfg.Storage, cfg.Metadata.NodeID, appLogger)
	if err != nil {
		appLogger.Error("Failed to create state storage",
			logger.String("type", cfg.Storage.Type),
			logger.Error(err))
		return err
	}
	defer func() {
		if closeErr := stateStorage.Close(); closeErr != nil {
			appLogger.Error("Failed to close state storage", logger.Error(closeErr))
		}
	}()

	if waiter, ok := stateStorage.(leaderWaiter); ok {
		appLogger.Info("Waiting for raft leader election")
		if err := waiter.WaitForLeader(ctx); err != nil {
			return fmt.Errorf("raft leader election: %w", err)
		}
	}

	store := experience.NewStore(stateStorage, cfg.Experience, appLogger)
	if err := followObservations(ctx, store, appLogger); err != nil {
		return err
	}

	var authService domain.AuthService
	if cfg.Auth.Enabled {
		authService = auth.NewService(cfg.Auth.JWT, appLogger, metricsService)
	} else {
		appLogger.Warn("Replica authentication is disabled")
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
		appLogger.Info("Metrics endpoint enabled", logger.String("path", metricsPath))
	}

	router := server.NewRouter(server.RouterDeps{
		Store:        store,
		Catalogue:    catalogue,
		Storage:      stateStorage,
		Auth:         authService,
		Metrics:      metricsService,
		Logger:       appLogger,
		Version:      version,
		NodeID:       cfg.Metadata.NodeID,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MetricsPath:  metricsPath,
	})
	srv := server.New(cfg.Server, router, appLogger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			appLogger.Error("Server failed", logger.Error(err))
		}
		return err
	case <-ctx.Done():
		appLogger.Info("Received shutdown signal")
	}

	// The signal context is done; shutdown gets its own deadline.
	if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
		appLogger.Error("Error during server shutdown", logger.Error(err))
		return err
	}
	if err := <-serveErr; err != nil {
		return err
	}

	appLogger.Info("Server stopped gracefully")
	return nil
}

// followObservations logs observations appended through any instance that
// shares the storage backend.
func followObservations(ctx context.Context, store *experience.Store, log domain.Logger) error {
	updates, err := store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch observations: %w", err)
	}
	go func() {
		for obs := range updates {
			log.Debug("Observation stored",
				logger.NodeID(obs.NodeID),
				logger.Protocol(obs.Protocol),
				logger.Epoch(obs.Epoch),
				logger.Float("reward", obs.Reward))
		}
	}()
	return nil
}
