package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trialreg/internal/audit"
	"trialreg/internal/registry/eligibility"
	"trialreg/internal/registry/metrics"
	"trialreg/internal/registry/models"
	"trialreg/internal/registry/store"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
)

// Store is the persistence port of the registry. All three aggregates share
// one store so a single transaction can span them.
type Store interface {
	CreateVolunteer(ctx context.Context, v *models.Volunteer) error
	UpdateVolunteer(ctx context.Context, v *models.Volunteer) error
	FindVolunteer(ctx context.Context, volunteerID id.VolunteerID) (*models.Volunteer, error)
	// LockVolunteer reads a volunteer and holds it until the transaction ends.
	LockVolunteer(ctx context.Context, volunteerID id.VolunteerID) (*models.Volunteer, error)
	ListVolunteers(ctx context.Context, filter models.VolunteerFilter) ([]*models.Volunteer, error)
	NextCodeSequence(ctx context.Context, year int) (int64, error)

	CreateStudy(ctx context.Context, s *models.Study) error
	UpdateStudy(ctx context.Context, s *models.Study) error
	FindStudy(ctx context.Context, studyID id.StudyID) (*models.Study, error)
	LockStudy(ctx context.Context, studyID id.StudyID) (*models.Study, error)
	ListStudies(ctx context.Context, activeOnly bool) ([]*models.Study, error)

	CreateParticipation(ctx context.Context, p *models.Participation) error
	UpdateParticipation(ctx context.Context, p *models.Participation) error
	FindParticipation(ctx context.Context, participationID id.ParticipationID) (*models.Participation, error)
	ListParticipations(ctx context.Context, volunteerID id.VolunteerID) ([]*models.Participation, error)
	ListParticipationsFor(ctx context.Context, volunteerIDs []id.VolunteerID) (map[id.VolunteerID][]*models.Participation, error)
	ListActiveParticipationsByStudy(ctx context.Context, studyID id.StudyID) ([]*models.Participation, error)
}

// StoreTx provides the transactional boundary for registry mutations.
// Implementations may wrap a database transaction or, in memory, a coarse
// lock with staged writes. The context passed to fn carries the transaction.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// CodeSequence allocates the yearly sequence of volunteer codes outside the
// record store.
type CodeSequence interface {
	Next(ctx context.Context, year int) (int64, error)
}

// AuditRecorder persists audit entries with fail-closed semantics.
type AuditRecorder interface {
	Record(ctx context.Context, rec audit.Record) error
}

// Service is the enrollment coordinator and the single write path of the
// registry. Every mutation runs its checks, writes and audit entries in one
// transaction.
type Service struct {
	store   Store
	tx      StoreTx
	audit   AuditRecorder
	engine  *eligibility.Engine
	codes   CodeSequence
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEngine(engine *eligibility.Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

// WithCodeSequence allocates volunteer codes from seq instead of the store.
func WithCodeSequence(seq CodeSequence) Option {
	return func(s *Service) {
		s.codes = seq
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(st Store, tx StoreTx, recorder AuditRecorder, opts ...Option) *Service {
	s := &Service{
		store:  st,
		tx:     tx,
		audit:  recorder,
		engine: eligibility.New(eligibility.DefaultPolicy),
		logger: slog.Default(),
		tracer: otel.Tracer("trialreg/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine exposes the eligibility engine the service evaluates with.
func (s *Service) Engine() *eligibility.Engine {
	return s.engine
}

// StatusOption is one entry of the status catalog.
type StatusOption struct {
	Status models.Status
	Tone   models.Tone
}

// StatusCatalog lists every status with its presentation tone.
func (s *Service) StatusCatalog() []StatusOption {
	out := make([]StatusOption, 0, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		out = append(out, StatusOption{Status: st, Tone: st.Tone()})
	}
	return out
}

// startSpan opens a span and returns a finisher that records err and the
// operation duration.
func (s *Service) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+operation, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(otelcodes.Error, string(dErrors.CodeOf(*errp)))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, start)
		}
	}
}

// record flushes the audit entries collected by a transaction. It runs last
// inside the transaction so a failed check never leaves an entry behind.
func (s *Service) record(ctx context.Context, recs ...audit.Record) error {
	for _, rec := range recs {
		if err := s.audit.Record(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
		}
	}
	return nil
}

// requireJustification trims j and rejects it when empty.
func requireJustification(j, message string) (string, error) {
	j = strings.TrimSpace(j)
	if j == "" {
		return "", dErrors.New(dErrors.CodeValidation, message)
	}
	return j, nil
}

const (
	msgJustificationEdit   = "La justificación es obligatoria para editar."
	msgJustificationEnroll = "La justificación es obligatoria para inscribir al voluntario en un estudio."
	msgJustificationClose  = "La justificación es obligatoria para cerrar la participación."
	msgVolunteerNotFound   = "Voluntario no encontrado"
	msgStudyNotFound       = "Estudio no encontrado"
	msgParticipationGone   = "Participación no encontrada"
)

// translateInvariant turns model invariant violations into validation errors.
func translateInvariant(err error) error {
	if err == nil {
		return nil
	}
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
	}
	return err
}

// passThrough keeps domain errors raised inside a transaction and wraps
// anything else as internal.
func passThrough(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

func notFoundOr(err error, message, internal string) error {
	if errors.Is(err, store.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, message)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}
