package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

// LoggingMiddleware logs one line per completed request.
type LoggingMiddleware struct {
	logger domain.Logger
}

// NewLoggingMiddleware creates a request logging middleware.
func NewLoggingMiddleware(log domain.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: log.With(logger.Component("http"))}
}

// LogRequests logs method, route, status and duration of each request.
func (m *LoggingMiddleware) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		fields := []domain.Field{
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("route", routeTemplate(r)),
			logger.Int("status_code", rec.statusCode),
			logger.Duration("duration_ms", time.Since(start).Milliseconds()),
			logger.String("remote_addr", r.RemoteAddr),
			logger.RequestID(RequestIDFromContext(r.Context())),
		}
		if replica := ReplicaFromContext(r.Context()); replica != nil {
			fields = append(fields, logger.NodeID(replica.NodeID))
		}

		if rec.statusCode >= http.StatusBadRequest {
			m.logger.Warn("Request completed with error", fields...)
		} else {
			m.logger.Debug("Request completed", fields...)
		}
	})
}

// routeTemplate returns the matched mux route template so that metric
// labels stay bounded; unmatched requests share one label.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
