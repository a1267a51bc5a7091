package auth_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authconfig "github.com/demonshower/BFTBrain/internal/config/modules/auth"
	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/services/auth"
	"github.com/demonshower/BFTBrain/internal/testutils"
)

func newService(t *testing.T, clock func() time.Time) (*auth.Service, *testutils.MockMetricsService) {
	t.Helper()

	metrics := testutils.NewMockMetricsService()
	svc := auth.NewService(authconfig.JWTConfig{
		Secret:   string(testSecret),
		Issuer:   "bftbrain",
		Audience: "bftbrain-agents",
		Leeway:   5 * time.Second,
	}, testutils.NewMockLogger(), metrics, auth.WithClock(clock))
	return svc, metrics
}

func TestService_Authenticate(t *testing.T) {
	t.Parallel()

	svc, metrics := newService(t, func() time.Time { return testNow })
	token := sign(t, jwt.SigningMethodHS256, testSecret, replicaClaims("replica-3", testNow.Add(time.Hour)))

	replica, err := svc.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "replica-3", replica.NodeID)
	assert.Equal(t, "bftbrain", replica.Issuer)
	assert.True(t, testNow.Add(time.Hour).Equal(replica.ExpiresAt))
	assert.Equal(t, 1, metrics.AuthAttempts(auth.StatusSuccess))
}

func TestService_AuthenticateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		token      string
		wantStatus string
		wantIs     error
	}{
		{name: "missing", token: "", wantStatus: auth.StatusMissing, wantIs: domain.ErrUnauthorized},
		{name: "bearer only", token: "Bearer ", wantStatus: auth.StatusMissing, wantIs: domain.ErrUnauthorized},
		{name: "garbage", token: "Bearer nonsense", wantStatus: auth.StatusInvalid, wantIs: domain.ErrInvalidToken},
		{name: "expired", wantStatus: auth.StatusExpired, wantIs: domain.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, metrics := newService(t, func() time.Time { return testNow })
			token := tt.token
			if tt.name == "expired" {
				token = sign(t, jwt.SigningMethodHS256, testSecret, replicaClaims("replica-3", testNow.Add(-time.Hour)))
			}

			_, err := svc.Authenticate(context.Background(), token)
			require.ErrorIs(t, err, tt.wantIs)

			var appErr *domain.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, domain.ErrCodeUnauthorized, appErr.Code)
			assert.Equal(t, 1, metrics.AuthAttempts(tt.wantStatus))
		})
	}
}

func TestService_CacheHonoursTokenExpiry(t *testing.T) {
	t.Parallel()

	var offset atomic.Int64
	clock := func() time.Time { return testNow.Add(time.Duration(offset.Load())) }
	svc, _ := newService(t, clock)

	token := sign(t, jwt.SigningMethodHS256, testSecret, replicaClaims("replica-4", testNow.Add(time.Minute)))

	_, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)

	offset.Store(int64(30 * time.Second))
	_, err = svc.Authenticate(context.Background(), token)
	require.NoError(t, err)

	// Past expiry plus leeway the cached entry must not be served.
	offset.Store(int64(2 * time.Minute))
	_, err = svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestService_CacheSweepsExpiredTokens(t *testing.T) {
	t.Parallel()

	var offset atomic.Int64
	clock := func() time.Time { return testNow.Add(time.Duration(offset.Load())) }
	svc, _ := newService(t, clock)

	for _, subject := range []string{"replica-1", "replica-2", "replica-3", "replica-4"} {
		token := sign(t, jwt.SigningMethodHS256, testSecret, replicaClaims(subject, testNow.Add(time.Minute)))
		_, err := svc.Authenticate(context.Background(), token)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, svc.CachedTokens())

	// Rotated tokens are never presented again; the next store drops them.
	offset.Store(int64(2 * time.Minute))
	fresh := sign(t, jwt.SigningMethodHS256, testSecret, replicaClaims("replica-1", testNow.Add(time.Hour)))
	_, err := svc.Authenticate(context.Background(), fresh)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.CachedTokens())
}

func TestService_CacheIsBounded(t *testing.T) {
	t.Parallel()

	svc, metrics := newService(t, func() time.Time { return testNow })
	svc.LimitCache(2)

	for _, subject := range []string{"replica-1", "replica-2", "replica-3"} {
		token := sign(t, jwt.SigningMethodHS256, testSecret, replicaClaims(subject, testNow.Add(time.Hour)))
		replica, err := svc.Authenticate(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, subject, replica.NodeID)
	}

	assert.Equal(t, 2, svc.CachedTokens())
	assert.Equal(t, 3, metrics.AuthAttempts(auth.StatusSuccess))
}
