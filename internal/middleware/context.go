// Package middleware wraps API routes with request ids, authentication,
// logging and metrics.
package middleware

import (
	"context"
	"net/http"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// ReplicaFromContext returns the authenticated replica, or nil.
func ReplicaFromContext(ctx context.Context) *domain.Replica {
	replica, _ := ctx.Value(domain.ReplicaKey).(*domain.Replica)
	return replica
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(domain.RequestIDKey).(string)
	return id
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
