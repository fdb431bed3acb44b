package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics of the application.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	Requests        *prometheus.CounterVec
}

// New creates and registers the HTTP metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trialreg_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trialreg_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}
