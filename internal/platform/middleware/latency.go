package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trialreg/internal/platform/metrics"
	request "trialreg/pkg/platform/middleware/request"
)

// Latency records request duration and status by chi route pattern, so
// /api/volunteers/{id} is one series however many volunteers exist.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := request.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.ObserveRequest(route, r.Method, rec.Status, start)
		})
	}
}
