package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demonshower/BFTBrain/internal/features"
	"github.com/demonshower/BFTBrain/internal/services/metrics"
	"github.com/demonshower/BFTBrain/internal/testutils"
)

func gather(t *testing.T, svc *metrics.Service) map[string]*dto.MetricFamily {
	t.Helper()

	families, err := svc.Registry().Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		out[l.GetName()] = l.GetValue()
	}
	return out
}

func TestService_RecordObservation(t *testing.T) {
	t.Parallel()

	svc := metrics.NewService("", testutils.NewMockLogger())
	columns := [features.Dimension]float64{0.75, 2.5, 1024, 1, 0, 9}

	svc.RecordObservation(context.Background(), "replica-1", "zyzzyva", columns, 3200)

	families := gather(t, svc)

	featureFamily := families["bftbrain_feature_value"]
	require.NotNil(t, featureFamily)
	require.Len(t, featureFamily.GetMetric(), features.Dimension)

	values := make(map[string]float64)
	for _, m := range featureFamily.GetMetric() {
		l := labels(m)
		assert.Equal(t, "replica-1", l["node"])
		assert.Equal(t, "zyzzyva", l["protocol"])
		values[l["feature"]] = m.GetGauge().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"FAST_PATH_FREQUENCY":       0.75,
		"SLOWNESS_OF_PROPOSAL":      2.5,
		"REQUEST_SIZE":              1024,
		"HAS_FAST_PATH":             1,
		"HAS_LEADER_ROTATION":       0,
		"RECEIVED_MESSAGE_PER_SLOT": 9,
	}, values)
	assert.NotContains(t, values, "REWARD")

	rewardFamily := families["bftbrain_reward"]
	require.NotNil(t, rewardFamily)
	require.Len(t, rewardFamily.GetMetric(), 1)
	assert.InDelta(t, 3200, rewardFamily.GetMetric()[0].GetGauge().GetValue(), 0)

	accepted := families["bftbrain_observations_total"]
	require.NotNil(t, accepted)
	assert.InDelta(t, 1, accepted.GetMetric()[0].GetCounter().GetValue(), 0)
}

func TestService_RecordObservationDropsPreviousProtocol(t *testing.T) {
	t.Parallel()

	svc := metrics.NewService("", testutils.NewMockLogger())
	ctx := context.Background()

	svc.RecordObservation(ctx, "replica-1", "zyzzyva", [features.Dimension]float64{0.9, 1, 512, 1, 0, 4}, 4000)
	svc.RecordObservation(ctx, "replica-2", "zyzzyva", [features.Dimension]float64{0.8, 1, 512, 1, 0, 4}, 3900)
	svc.RecordObservation(ctx, "replica-1", "hotstuff2", [features.Dimension]float64{0, 3, 512, 0, 1, 7}, 2500)

	families := gather(t, svc)

	protocolsByNode := make(map[string]map[string]int)
	for _, m := range families["bftbrain_feature_value"].GetMetric() {
		l := labels(m)
		if protocolsByNode[l["node"]] == nil {
			protocolsByNode[l["node"]] = make(map[string]int)
		}
		protocolsByNode[l["node"]][l["protocol"]]++
	}
	assert.Equal(t, map[string]map[string]int{
		"replica-1": {"hotstuff2": features.Dimension},
		"replica-2": {"zyzzyva": features.Dimension},
	}, protocolsByNode)

	rewards := make(map[string]string)
	for _, m := range families["bftbrain_reward"].GetMetric() {
		l := labels(m)
		rewards[l["node"]] = l["protocol"]
	}
	assert.Equal(t, map[string]string{"replica-1": "hotstuff2", "replica-2": "zyzzyva"}, rewards)
}

func TestService_RecordRejectedObservation(t *testing.T) {
	t.Parallel()

	svc := metrics.NewService("bftbrain", testutils.NewMockLogger())
	svc.RecordRejectedObservation(context.Background(), "replica-2", "stale_epoch")
	svc.RecordRejectedObservation(context.Background(), "replica-2", "stale_epoch")

	families := gather(t, svc)

	rejections := families["bftbrain_observation_rejections_total"]
	require.NotNil(t, rejections)
	assert.Equal(t, "stale_epoch", labels(rejections.GetMetric()[0])["reason"])
	assert.InDelta(t, 2, rejections.GetMetric()[0].GetCounter().GetValue(), 0)

	total := families["bftbrain_observations_total"]
	require.NotNil(t, total)
	assert.Equal(t, metrics.ObservationRejected, labels(total.GetMetric()[0])["status"])
}

func TestService_RequestAndAuthMetrics(t *testing.T) {
	t.Parallel()

	svc := metrics.NewService("custom", testutils.NewMockLogger())
	ctx := context.Background()

	svc.RecordRequest(ctx, http.MethodPost, "/api/v1/observations", "201", 15*time.Millisecond)
	svc.RecordAuthAttempt(ctx, "success")
	svc.RecordAuthAttempt(ctx, "invalid")

	families := gather(t, svc)

	requests := families["custom_http_requests_total"]
	require.NotNil(t, requests)
	assert.Equal(t, map[string]string{
		"method":      http.MethodPost,
		"route":       "/api/v1/observations",
		"status_code": "201",
	}, labels(requests.GetMetric()[0]))

	duration := families["custom_http_request_duration_seconds"]
	require.NotNil(t, duration)
	assert.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())

	auth := families["custom_auth_attempts_total"]
	require.NotNil(t, auth)
	assert.Len(t, auth.GetMetric(), 2)
}

func TestService_Handler(t *testing.T) {
	t.Parallel()

	svc := metrics.NewService("", testutils.NewMockLogger())
	svc.RecordAuthAttempt(context.Background(), "success")

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	recorder := httptest.NewRecorder()
	svc.Handler().ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bftbrain_auth_attempts_total")
	assert.Contains(t, string(body), "go_goroutines")
}
