package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"inkgate/internal/platform/metrics"
)

// Latency observes request duration per matched route pattern. The pattern is
// read after the handler runs, once the router has resolved it; unmatched
// requests fall back to the raw path so 404 probes stay visible.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			next.ServeHTTP(w, r)

			endpoint := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				endpoint = rctx.RoutePattern()
			}
			m.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		})
	}
}
