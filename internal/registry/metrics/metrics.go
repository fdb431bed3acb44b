package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
// Tracks mutation outcomes and coordinator latencies.
type Metrics struct {
	VolunteersCreated    prometheus.Counter
	Enrollments          *prometheus.CounterVec
	ParticipationsClosed *prometheus.CounterVec
	DictumsSet           *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		VolunteersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trialreg_volunteers_created_total",
			Help: "Total number of volunteers registered",
		}),
		Enrollments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trialreg_enrollments_total",
			Help: "Enrollment attempts by outcome (created, rejected)",
		}, []string{"outcome"}),
		ParticipationsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trialreg_participations_closed_total",
			Help: "Participations closed, by trigger (manual, closeout)",
		}, []string{"trigger"}),
		DictumsSet: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trialreg_dictums_set_total",
			Help: "Manual dictums recorded, by dictum",
		}, []string{"dictum"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trialreg_registry_operation_duration_seconds",
			Help:    "Duration of registry operations including the store transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncrementVolunteersCreated records a successful registration.
func (m *Metrics) IncrementVolunteersCreated() {
	m.VolunteersCreated.Inc()
}

// IncrementEnrollment records an enrollment outcome.
func (m *Metrics) IncrementEnrollment(outcome string) {
	m.Enrollments.WithLabelValues(outcome).Inc()
}

// IncrementParticipationClosed records a closed participation.
func (m *Metrics) IncrementParticipationClosed(trigger string) {
	m.ParticipationsClosed.WithLabelValues(trigger).Inc()
}

// IncrementDictum records a dictum change.
func (m *Metrics) IncrementDictum(dictum string) {
	m.DictumsSet.WithLabelValues(dictum).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
