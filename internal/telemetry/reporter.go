package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

const (
	// ObservationsPath is the ingest route relative to the service endpoint.
	ObservationsPath = "/api/v1/observations"

	defaultReportInterval = 10 * time.Second
	defaultReportTimeout  = 5 * time.Second
	maxErrorBodyBytes     = 4096
)

// ErrReportRejected is wrapped when the service answers with a non-2xx status.
var ErrReportRejected = errors.New("observation rejected")

// ReporterConfig configures a Reporter.
type ReporterConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Reporter periodically snapshots a Collector and posts the observation.
type Reporter struct {
	config     ReporterConfig
	collector  *Collector
	httpClient *http.Client
	logger     domain.Logger

	mu sync.Mutex

	// pending is the last observation that failed to reach the service for a
	// retryable reason. It is resent before the next snapshot is taken.
	pending *Observation
}

// NewReporter creates a reporter. Zero interval and timeout take defaults.
func NewReporter(config ReporterConfig, collector *Collector, log domain.Logger) *Reporter {
	if config.Interval <= 0 {
		config.Interval = defaultReportInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultReportTimeout
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")

	return &Reporter{
		config:     config,
		collector:  collector,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger: log.With(
			logger.Component("reporter"),
			logger.NodeID(collector.NodeID()),
		),
	}
}

// Run reports one observation per interval until ctx is cancelled.
// Failed reports are logged and the loop continues; see Report for which
// observations are retried.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.logger.Info("Reporter started", logger.Duration("interval", r.config.Interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reporter stopped")
			return
		case <-ticker.C:
			obs, err := r.Report(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Warn("Failed to report observation",
					logger.Epoch(obs.Epoch),
					logger.Error(err))
				continue
			}
			r.logger.Debug("Observation reported",
				logger.Epoch(obs.Epoch),
				logger.Protocol(obs.Protocol),
				logger.Float("reward", obs.Reward))
		}
	}
}

// Report closes the current epoch and posts it. The observation is returned
// even when posting fails.
//
// An observation that fails on transport or with a 5xx status is kept and
// resent on the next call, before a new epoch is closed; until it is
// delivered, slots keep accumulating in the open epoch. An observation the
// service rejects with any other status is dropped.
func (r *Reporter) Report(ctx context.Context) (Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != nil {
		obs := *r.pending
		retry, err := r.post(ctx, obs)
		if err != nil && retry {
			return obs, err
		}
		if err != nil {
			r.logger.Warn("Dropping undeliverable observation",
				logger.Epoch(obs.Epoch),
				logger.Error(err))
		}
		r.pending = nil
	}

	obs := r.collector.Snapshot()
	retry, err := r.post(ctx, obs)
	if err != nil && retry {
		r.pending = &obs
	}
	return obs, err
}

// Pending reports whether an observation is waiting to be resent.
func (r *Reporter) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// post sends obs and reports whether a failure is worth retrying.
func (r *Reporter) post(ctx context.Context, obs Observation) (bool, error) {
	body, err := json.Marshal(obs)
	if err != nil {
		return false, fmt.Errorf("encode observation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Endpoint+ObservationsPath, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.Token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("post observation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return resp.StatusCode >= http.StatusInternalServerError,
			fmt.Errorf("%w: status %d: %s", ErrReportRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return false, nil
}
