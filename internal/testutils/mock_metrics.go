package testutils

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/demonshower/BFTBrain/internal/features"
)

// RecordedObservation is an observation passed to MockMetricsService.
type RecordedObservation struct {
	NodeID   string
	Protocol string
	Columns  [features.Dimension]float64
	Reward   float64
}

// MockMetricsService implements domain.MetricsService and counts calls.
type MockMetricsService struct {
	mu           sync.Mutex
	requests     int
	authAttempts map[string]int
	observations []RecordedObservation
	rejections   map[string]int
}

// NewMockMetricsService creates an empty recording metrics service.
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{
		authAttempts: make(map[string]int),
		rejections:   make(map[string]int),
	}
}

func (m *MockMetricsService) RecordRequest(context.Context, string, string, string, time.Duration) {
	m.mu.Lock()
	m.requests++
	m.mu.Unlock()
}

func (m *MockMetricsService) RecordAuthAttempt(_ context.Context, status string) {
	m.mu.Lock()
	m.authAttempts[status]++
	m.mu.Unlock()
}

func (m *MockMetricsService) RecordObservation(
	_ context.Context,
	nodeID, protocol string,
	columns [features.Dimension]float64,
	reward float64,
) {
	m.mu.Lock()
	m.observations = append(m.observations, RecordedObservation{
		NodeID:   nodeID,
		Protocol: protocol,
		Columns:  columns,
		Reward:   reward,
	})
	m.mu.Unlock()
}

func (m *MockMetricsService) RecordRejectedObservation(_ context.Context, _ string, reason string) {
	m.mu.Lock()
	m.rejections[reason]++
	m.mu.Unlock()
}

// Handler returns a handler that answers 200 with an empty body.
func (m *MockMetricsService) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// Requests returns the number of recorded requests.
func (m *MockMetricsService) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// AuthAttempts returns the number of auth attempts with status.
func (m *MockMetricsService) AuthAttempts(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authAttempts[status]
}

// Observations returns a copy of the recorded observations.
func (m *MockMetricsService) Observations() []RecordedObservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedObservation, len(m.observations))
	copy(out, m.observations)
	return out
}

// Rejections returns the number of rejections with reason.
func (m *MockMetricsService) Rejections(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejections[reason]
}
