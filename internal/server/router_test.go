package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authconfig "github.com/demonshower/BFTBrain/internal/config/modules/auth"
	experienceconfig "github.com/demonshower/BFTBrain/internal/config/modules/experience"
	serverconfig "github.com/demonshower/BFTBrain/internal/config/modules/server"
	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/handlers"
	"github.com/demonshower/BFTBrain/internal/server"
	"github.com/demonshower/BFTBrain/internal/services/auth"
	"github.com/demonshower/BFTBrain/internal/services/experience"
	"github.com/demonshower/BFTBrain/internal/services/protocols"
	"github.com/demonshower/BFTBrain/internal/services/statestorage"
	"github.com/demonshower/BFTBrain/internal/telemetry"
	"github.com/demonshower/BFTBrain/internal/testutils"
)

const secret = "router-test-secret-router-test-secret"

type fixture struct {
	handler http.Handler
	metrics *testutils.MockMetricsService
}

func newFixture(t *testing.T, withAuth bool) *fixture {
	t.Helper()

	storage := statestorage.NewLocalStorage("router-test")
	t.Cleanup(func() { _ = storage.Close() })

	catalogue, err := protocols.NewCatalogue(protocols.Defaults())
	require.NoError(t, err)

	log := testutils.NewMockLogger()
	metrics := testutils.NewMockMetricsService()

	deps := server.RouterDeps{
		Store:        experience.NewStore(storage, experienceconfig.GetDefaults(), log),
		Catalogue:    catalogue,
		Storage:      storage,
		Metrics:      metrics,
		Logger:       log,
		Version:      "test",
		NodeID:       "router-test",
		MaxBodyBytes: 4096,
		MetricsPath:  "/metrics",
	}
	if withAuth {
		deps.Auth = auth.NewService(authconfig.JWTConfig{Secret: secret, Issuer: "bftbrain"}, log, metrics)
	}
	return &fixture{handler: server.NewRouter(deps), metrics: metrics}
}

func token(t *testing.T, subject string) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "bftbrain",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func observationBody(node, protocol string, epoch uint64, fastPath, rotation float64) string {
	obs := map[string]any{
		"node_id":  node,
		"protocol": protocol,
		"epoch":    epoch,
		"features": map[string]float64{
			"FAST_PATH_FREQUENCY":       0.4,
			"SLOWNESS_OF_PROPOSAL":      3,
			"REQUEST_SIZE":              256,
			"HAS_FAST_PATH":             fastPath,
			"HAS_LEADER_ROTATION":       rotation,
			"RECEIVED_MESSAGE_PER_SLOT": 11,
		},
		"reward":       1500,
		"slots":        40,
		"collected_at": "2024-05-01T12:00:00Z",
	}
	raw, _ := json.Marshal(obs)
	return string(raw)
}

func (f *fixture) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Features(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, server.FeaturesPath, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Dimension int                     `json:"dimension"`
		Features  []handlers.FeatureEntry `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 6, body.Dimension)
	require.Len(t, body.Features, 7)
	assert.Equal(t, handlers.FeatureEntry{Name: "REWARD", Index: -1}, body.Features[0])
	assert.Equal(t, handlers.FeatureEntry{Name: "HAS_FAST_PATH", Index: 3, Column: true, Binary: true}, body.Features[4])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Protocols(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, server.ProtocolsPath, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Protocols []domain.Protocol `json:"protocols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Protocols, len(protocols.Defaults()))
}

func TestRouter_IngestAndQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	bearer := token(t, "replica-1")

	rec := f.do(t, http.MethodPost, server.ObservationsPath, observationBody("replica-1", "Zyzzyva", 1, 1, 0), bearer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created telemetry.Observation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "zyzzyva", created.Protocol)

	require.Len(t, f.metrics.Observations(), 1)
	assert.InDelta(t, 1500, f.metrics.Observations()[0].Reward, 0)

	rec = f.do(t, http.MethodPost, server.ObservationsPath, observationBody("replica-1", "zyzzyva", 2, 1, 0), bearer)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, server.ObservationsPath+"/replica-1/latest", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest telemetry.Observation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, uint64(2), latest.Epoch)

	rec = f.do(t, http.MethodGet, server.ObservationsPath+"/replica-1?limit=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Node         string                  `json:"node"`
		Observations []telemetry.Observation `json:"observations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Observations, 1)
	assert.Equal(t, uint64(2), history.Observations[0].Epoch)

	rec = f.do(t, http.MethodGet, server.ObservationsPath, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"nodes":["replica-1"]}`, rec.Body.String())
}

func TestRouter_IngestRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		bearer     string
		wantStatus int
		wantReason string
	}{
		{
			name:       "no token",
			body:       observationBody("replica-1", "pbft", 1, 0, 0),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token for another replica",
			body:       observationBody("replica-2", "pbft", 1, 0, 0),
			bearer:     "replica-1",
			wantStatus: http.StatusForbidden,
			wantReason: handlers.ReasonReplicaMismatch,
		},
		{
			name:       "unknown protocol",
			body:       observationBody("replica-1", "raft", 1, 0, 0),
			bearer:     "replica-1",
			wantStatus: http.StatusBadRequest,
			wantReason: handlers.ReasonUnknownProtocol,
		},
		{
			name:       "traits disagree with catalogue",
			body:       observationBody("replica-1", "pbft", 1, 1, 0),
			bearer:     "replica-1",
			wantStatus: http.StatusBadRequest,
			wantReason: handlers.ReasonTraitMismatch,
		},
		{
			name:       "malformed json",
			body:       `{"node_id":`,
			bearer:     "replica-1",
			wantStatus: http.StatusBadRequest,
			wantReason: handlers.ReasonMalformed,
		},
		{
			name:       "reward as a feature column",
			body:       strings.Replace(observationBody("replica-1", "pbft", 1, 0, 0), `"REQUEST_SIZE"`, `"REWARD"`, 1),
			bearer:     "replica-1",
			wantStatus: http.StatusBadRequest,
			wantReason: handlers.ReasonMalformed,
		},
		{
			name:       "oversized body",
			body:       `{"node_id":"` + strings.Repeat("x", 5000) + `"}`,
			bearer:     "replica-1",
			wantStatus: http.StatusRequestEntityTooLarge,
			wantReason: handlers.ReasonMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, true)
			bearer := ""
			if tt.bearer != "" {
				bearer = token(t, tt.bearer)
			}

			rec := f.do(t, http.MethodPost, server.ObservationsPath, tt.body, bearer)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var appErr domain.AppError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appErr))
			assert.NotEmpty(t, appErr.Code)
			assert.NotEmpty(t, appErr.Message)

			if tt.wantReason != "" {
				assert.Equal(t, 1, f.metrics.Rejections(tt.wantReason))
			}
			assert.Empty(t, f.metrics.Observations())
		})
	}
}

func TestRouter_StaleEpochConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	body := observationBody("replica-9", "hotstuff2", 3, 0, 1)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, server.ObservationsPath, body, "").Code)

	rec := f.do(t, http.MethodPost, server.ObservationsPath, body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, f.metrics.Rejections(handlers.ReasonStaleEpoch))
}

func TestRouter_QueryErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, server.ObservationsPath+"/ghost/latest", "", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, server.ObservationsPath+"/ghost", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, server.ObservationsPath+"/ghost?limit=-1", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, server.ObservationsPath+"/ghost?limit=abc", "", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodDelete, server.FeaturesPath, "", "").Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, server.HealthPath, "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, server.ReadyPath, "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", "", "").Code)
	assert.Positive(t, f.metrics.Requests())
}

func TestRouter_ReadinessReportsStorageFailure(t *testing.T) {
	t.Parallel()

	storage := testutils.NewMockStateStorage()
	storage.FailPing(errors.New("connection refused"))
	log := testutils.NewMockLogger()
	catalogue, err := protocols.NewCatalogue(protocols.Defaults())
	require.NoError(t, err)

	router := server.NewRouter(server.RouterDeps{
		Store:        experience.NewStore(storage, experienceconfig.GetDefaults(), log),
		Catalogue:    catalogue,
		Storage:      storage,
		Metrics:      testutils.NewMockMetricsService(),
		Logger:       log,
		MaxBodyBytes: 1024,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.ReadyPath, http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRouter_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	req := httptest.NewRequest(http.MethodGet, server.HealthPath, http.NoBody)
	req.Header.Set("X-Request-ID", "trace-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	cfg := serverconfig.GetDefaults()
	srv := server.New(cfg, f.handler, testutils.NewMockLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+server.ObservationsPath, "application/json",
		bytes.NewBufferString(observationBody("replica-5", "sbft", 1, 1, 0)))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, <-done)
}
