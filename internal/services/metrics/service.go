// Package metrics exports service and feature metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/features"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "bftbrain"

// Observation statuses.
const (
	ObservationAccepted = "accepted"
	ObservationRejected = "rejected"
)

// metricsSet holds all Prometheus metrics to avoid global variables.
type metricsSet struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authAttemptsTotal   *prometheus.CounterVec
	observationsTotal   *prometheus.CounterVec
	rejectionsTotal     *prometheus.CounterVec
	featureValue        *prometheus.GaugeVec
	reward              *prometheus.GaugeVec
}

func newMetricsSet(namespace string) *metricsSet {
	return &metricsSet{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		authAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Total number of replica authentication attempts",
			},
			[]string{"status"},
		),
		observationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observations_total",
				Help:      "Total number of submitted observations by outcome",
			},
			[]string{"node", "status"},
		),
		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observation_rejections_total",
				Help:      "Rejected observations by reason",
			},
			[]string{"reason"},
		),
		featureValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "feature_value",
				Help:      "Latest reported value of each feature column",
			},
			[]string{"node", "protocol", "feature"},
		),
		reward: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reward",
				Help:      "Latest reported reward (committed requests per second)",
			},
			[]string{"node", "protocol"},
		),
	}
}

// Service implements domain.MetricsService.
type Service struct {
	logger   domain.Logger
	registry *prometheus.Registry
	metrics  *metricsSet

	mu sync.Mutex

	// protocols is the protocol each node's gauges were last exported under.
	protocols map[string]string
}

// NewService creates a metrics service with its own registry. An empty
// namespace selects DefaultNamespace.
func NewService(namespace string, log domain.Logger) *Service {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registry := prometheus.NewRegistry()
	metrics := newMetricsSet(namespace)

	registry.MustRegister(
		metrics.httpRequestsTotal,
		metrics.httpRequestDuration,
		metrics.authAttemptsTotal,
		metrics.observationsTotal,
		metrics.rejectionsTotal,
		metrics.featureValue,
		metrics.reward,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Service{
		logger:   log.With(logger.Component("metrics")),
		registry:  registry,
		metrics:   metrics,
		protocols: make(map[string]string),
	}
}

// Handler returns HTTP handler for metrics endpoint.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry exposes the underlying registry.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// RecordRequest records metrics for incoming requests.
func (s *Service) RecordRequest(_ context.Context, method, route, status string, duration time.Duration) {
	s.metrics.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	s.metrics.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthAttempt records authentication attempt metrics.
func (s *Service) RecordAuthAttempt(_ context.Context, status string) {
	s.metrics.authAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordObservation exports every feature column under its wire name and the
// reward on its own gauge. A node has gauges for one protocol at a time; the
// series of its previous protocol are removed when it switches.
func (s *Service) RecordObservation(
	_ context.Context,
	nodeID, protocol string,
	columns [features.Dimension]float64,
	reward float64,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.protocols[nodeID]; ok && previous != protocol {
		stale := prometheus.Labels{"node": nodeID, "protocol": previous}
		s.metrics.featureValue.DeletePartialMatch(stale)
		s.metrics.reward.DeletePartialMatch(stale)
	}
	s.protocols[nodeID] = protocol

	for _, idx := range features.Columns() {
		s.metrics.featureValue.WithLabelValues(nodeID, protocol, idx.String()).Set(columns[idx])
	}
	s.metrics.reward.WithLabelValues(nodeID, protocol).Set(reward)
	s.metrics.observationsTotal.WithLabelValues(nodeID, ObservationAccepted).Inc()

	s.logger.Debug("Observation metrics recorded",
		logger.NodeID(nodeID),
		logger.Protocol(protocol),
		logger.Float("reward", reward))
}

// RecordRejectedObservation counts an observation that was not stored.
func (s *Service) RecordRejectedObservation(_ context.Context, nodeID, reason string) {
	s.metrics.observationsTotal.WithLabelValues(nodeID, ObservationRejected).Inc()
	s.metrics.rejectionsTotal.WithLabelValues(reason).Inc()
}
