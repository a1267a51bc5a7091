// Package auth authenticates replicas that submit observations.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	authconfig "github.com/demonshower/BFTBrain/internal/config/modules/auth"
	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

// DefaultCacheTTL bounds how long a verified token is trusted without
// re-verification.
const DefaultCacheTTL = 5 * time.Minute

// Auth attempt statuses recorded in metrics.
const (
	StatusSuccess = "success"
	StatusMissing = "missing"
	StatusExpired = "expired"
	StatusInvalid = "invalid"
)

// Service implements domain.AuthService with HS256 tokens whose subject is
// the replica node id.
type Service struct {
	verifier *JWTVerifier
	logger   domain.Logger
	metrics  domain.MetricsService
	now      func() time.Time
	cacheTTL time.Duration
	cache    *tokenCache
}

// NewService creates an auth service from JWT configuration.
func NewService(
	cfg authconfig.JWTConfig,
	log domain.Logger,
	metrics domain.MetricsService,
	opts ...VerifierOption,
) *Service {
	base := []VerifierOption{
		WithIssuer(cfg.Issuer),
		WithAudience(cfg.Audience),
		WithLeeway(cfg.Leeway),
	}
	verifier := NewJWTVerifier([]byte(cfg.Secret), append(base, opts...)...)

	return &Service{
		verifier: verifier,
		logger:   log.With(logger.Component("auth")),
		metrics:  metrics,
		now:      verifier.now,
		cacheTTL: DefaultCacheTTL,
		cache:    newTokenCache(DefaultCacheSize),
	}
}

// Authenticate verifies token, which may carry a "Bearer " prefix.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Replica, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		s.metrics.RecordAuthAttempt(ctx, StatusMissing)
		return nil, domain.ErrUnauthorized
	}

	now := s.now()
	if replica, ok := s.cache.get(token, now); ok {
		s.metrics.RecordAuthAttempt(ctx, StatusSuccess)
		return replica, nil
	}

	claims, err := s.verifier.VerifyToken(token)
	if err != nil {
		status := StatusInvalid
		if IsExpired(err) {
			status = StatusExpired
		}
		s.metrics.RecordAuthAttempt(ctx, status)
		s.logger.Warn("Token verification failed", logger.Error(err))

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, domain.NewUnauthorizedError(appErr.Message, err)
		}
		return nil, domain.NewUnauthorizedError(domain.ErrInvalidToken.Message, err)
	}

	replica := &domain.Replica{
		NodeID: claims.Subject,
		Issuer: claims.Issuer,
	}
	cacheUntil := now.Add(s.cacheTTL)
	if claims.ExpiresAt != nil {
		replica.ExpiresAt = claims.ExpiresAt.Time
		cacheUntil = minTime(cacheUntil, replica.ExpiresAt)
	}
	s.cache.put(token, cachedReplica{replica: replica, expiresAt: cacheUntil}, now)

	s.metrics.RecordAuthAttempt(ctx, StatusSuccess)
	s.logger.Debug("Replica authenticated", logger.NodeID(replica.NodeID))
	return replica, nil
}

func minTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
