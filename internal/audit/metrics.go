package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit trail and its relay.
type Metrics struct {
	Recorded        *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
	Relayed         prometheus.Counter
	RelayFailures   prometheus.Counter
	RelayBacklog    prometheus.Gauge
}

// NewMetrics registers the audit metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Recorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trialreg_audit_entries_recorded_total",
			Help: "Total number of audit entries persisted, by model and action",
		}, []string{"model", "action"}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trialreg_audit_persist_failures_total",
			Help: "Total number of audit entries that failed to persist",
		}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trialreg_audit_persist_duration_seconds",
			Help:    "Duration of audit entry persistence",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		Relayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trialreg_audit_entries_relayed_total",
			Help: "Total number of audit entries published to Kafka",
		}),
		RelayFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trialreg_audit_relay_failures_total",
			Help: "Total number of failed relay batches",
		}),
		RelayBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trialreg_audit_relay_backlog",
			Help: "Unpublished audit entries seen by the last relay poll",
		}),
	}
}

func (m *Metrics) incRecorded(model Model, action Action) {
	if m == nil {
		return
	}
	m.Recorded.WithLabelValues(string(model), string(action)).Inc()
}

func (m *Metrics) incPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) observePersist(seconds float64) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(seconds)
}

func (m *Metrics) addRelayed(n int) {
	if m == nil {
		return
	}
	m.Relayed.Add(float64(n))
}

func (m *Metrics) incRelayFailures() {
	if m == nil {
		return
	}
	m.RelayFailures.Inc()
}

func (m *Metrics) setBacklog(n int) {
	if m == nil {
		return
	}
	m.RelayBacklog.Set(float64(n))
}
