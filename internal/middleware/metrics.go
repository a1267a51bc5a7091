package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// MetricsMiddleware records request counts and durations.
type MetricsMiddleware struct {
	metrics domain.MetricsService
}

// NewMetricsMiddleware creates a metrics middleware.
func NewMetricsMiddleware(metrics domain.MetricsService) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// RecordMetrics records one sample per request labelled by route template.
func (m *MetricsMiddleware) RecordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		m.metrics.RecordRequest(r.Context(), r.Method, routeTemplate(r),
			strconv.Itoa(rec.statusCode), time.Since(start))
	})
}
