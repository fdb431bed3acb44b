// Package closeout closes participations automatically once their study's
// payment date has arrived.
package closeout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/service"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/requestcontext"
)

// Justification is recorded on every participation the sweeper closes.
const Justification = "Cierre automático por fecha de pago del estudio"

// Trigger labels sweeper closes in metrics.
const Trigger = "closeout"

// Registry is the part of the registry service the sweeper drives.
type Registry interface {
	ListStudies(ctx context.Context, activeOnly bool) ([]*models.Study, error)
	ActiveParticipationsByStudy(ctx context.Context, studyID id.StudyID) ([]*models.Participation, error)
	CloseParticipation(ctx context.Context, req service.CloseRequest) (*service.ParticipationView, error)
}

// Sweeper periodically closes active participations of studies whose payment
// date is today or earlier.
type Sweeper struct {
	registry Registry
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Sweeper)

func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func New(registry Registry, opts ...Option) *Sweeper {
	s := &Sweeper{
		registry: registry,
		interval: time.Hour,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.ErrorContext(ctx, "closeout sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep runs one pass and returns how many participations it closed. A
// participation that cannot be closed is logged and skipped; only listing
// failures abort the pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	today := models.Day(now)
	ctx = requestcontext.WithSession(ctx, requestcontext.SystemSession)
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithRequestID(ctx, "closeout-"+uuid.NewString())

	studies, err := s.registry.ListStudies(ctx, false)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, study := range studies {
		if study.PaymentDate == nil || study.PaymentDate.After(today) {
			continue
		}
		ps, err := s.registry.ActiveParticipationsByStudy(ctx, study.ID)
		if err != nil {
			return closed, err
		}
		for _, p := range ps {
			if err := ctx.Err(); err != nil {
				return closed, err
			}
			_, err := s.registry.CloseParticipation(ctx, service.CloseRequest{
				ParticipationID: p.ID,
				PaymentDate:     *study.PaymentDate,
				Justification:   Justification,
				Trigger:         Trigger,
			})
			if err != nil {
				level := slog.LevelError
				if dErrors.HasCode(err, dErrors.CodeConflict) {
					level = slog.LevelWarn
				}
				s.logger.Log(ctx, level, "closeout skipped participation",
					"participation_id", p.ID.String(),
					"study", study.Name,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				continue
			}
			closed++
		}
	}

	if closed > 0 {
		s.logger.InfoContext(ctx, "closeout sweep closed participations",
			"closed", closed,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return closed, nil
}
