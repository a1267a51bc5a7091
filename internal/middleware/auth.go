package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

// AuthMiddleware authenticates replicas from the Authorization header.
type AuthMiddleware struct {
	auth   domain.AuthService
	logger domain.Logger
}

// NewAuthMiddleware creates an auth middleware. A nil service disables
// authentication and every request passes through anonymously.
func NewAuthMiddleware(auth domain.AuthService, log domain.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   auth,
		logger: log.With(logger.Component("auth-middleware")),
	}
}

// Authenticate rejects requests without a valid replica token and stores the
// replica in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	if m.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		replica, err := m.auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			var appErr *domain.AppError
			if !errors.As(err, &appErr) {
				appErr = domain.NewUnauthorizedError("Authentication failed", err)
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="bftbrain"`)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(appErr.HTTPStatus)
			if encErr := json.NewEncoder(w).Encode(appErr); encErr != nil {
				m.logger.Error("Failed to encode auth error", logger.Error(encErr))
			}
			return
		}

		ctx := context.WithValue(r.Context(), domain.ReplicaKey, replica)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
