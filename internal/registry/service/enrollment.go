package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"trialreg/internal/audit"
	"trialreg/internal/registry/models"
	"trialreg/internal/registry/store"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/requestcontext"
)

// EnrollRequest enrolls an existing volunteer in a study.
type EnrollRequest struct {
	VolunteerID   id.VolunteerID
	StudyID       id.StudyID
	Justification string
	// AdmissionDate defaults to the study admission date, else the request day.
	AdmissionDate *time.Time
}

// EnrollResult is the created participation and the volunteer's updated list.
type EnrollResult struct {
	Participation  ParticipationView
	Participations []ParticipationView
}

// Enroll is the only way to open a participation. The volunteer row is
// locked for the whole check-then-insert sequence, so two concurrent
// enrollments of one volunteer cannot both succeed.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (_ *EnrollResult, err error) {
	ctx, finish := s.startSpan(ctx, "Enroll",
		attribute.String("volunteer_id", req.VolunteerID.String()),
		attribute.String("study_id", req.StudyID.String()))
	defer finish(&err)

	defer func() {
		if s.metrics == nil {
			return
		}
		if err != nil {
			s.metrics.IncrementEnrollment("rejected")
			return
		}
		s.metrics.IncrementEnrollment("created")
	}()

	justification, err := requireJustification(req.Justification, msgJustificationEnroll)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var created *models.Participation
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		v, err := st.LockVolunteer(ctx, req.VolunteerID)
		if err != nil {
			return notFoundOr(err, msgVolunteerNotFound, "failed to load volunteer")
		}
		p, rec, err := s.enrollLocked(ctx, st, v, req.StudyID, req.AdmissionDate, justification, now)
		if err != nil {
			return err
		}
		created = p
		return s.record(ctx, rec)
	})
	if err != nil {
		return nil, passThrough(err, "failed to enroll volunteer")
	}

	s.logger.InfoContext(ctx, "volunteer enrolled",
		"volunteer_id", req.VolunteerID.String(),
		"study_id", req.StudyID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	ps, err := s.store.ListParticipations(ctx, req.VolunteerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participations")
	}
	studies, err := loadStudies(ctx, s.store)
	if err != nil {
		return nil, err
	}
	result := &EnrollResult{Participations: participationViews(ps, studies)}
	for _, pv := range result.Participations {
		if pv.ID == created.ID {
			result.Participation = pv
		}
	}
	return result, nil
}

// enrollLocked checks every enrollment precondition against a volunteer the
// caller has locked, inserts the participation and returns its audit record.
// Preconditions, in order:
//  1. the study exists
//  2. the study is active
//  3. no previous participation in the same study
//  4. no active participation in any study
//  5. the washout after the last closed participation has elapsed
func (s *Service) enrollLocked(ctx context.Context, st Store, v *models.Volunteer, studyID id.StudyID,
	admission *time.Time, justification string, now time.Time) (*models.Participation, audit.Record, error) {
	study, err := st.FindStudy(ctx, studyID)
	if err != nil {
		return nil, audit.Record{}, notFoundOr(err, msgStudyNotFound, "failed to load study")
	}
	if !study.IsActive {
		return nil, audit.Record{}, dErrors.Newf(dErrors.CodeConflict,
			"El estudio %q no está vigente; no se pueden inscribir voluntarios", study.Name)
	}

	ps, err := st.ListParticipations(ctx, v.ID)
	if err != nil {
		return nil, audit.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participations")
	}
	if models.FindByStudy(ps, studyID) != nil {
		return nil, audit.Record{}, duplicateEnrollment(v, study)
	}
	studies, err := loadStudies(ctx, st)
	if err != nil {
		return nil, audit.Record{}, err
	}
	if active := models.ActiveParticipation(ps); active != nil {
		return nil, audit.Record{}, activeParticipation(v, studies[active.StudyID])
	}

	ev := s.engine.Evaluate(now, v, ps, studies)
	if ev.Resting() {
		remaining := int(ev.RestingUntil.Sub(models.Day(now)).Hours() / 24)
		return nil, audit.Record{}, dErrors.Newf(dErrors.CodeConflict,
			"El voluntario no es apto. Su último pago fue el %s. Debe esperar hasta el %s (%d días restantes).",
			models.FormatDate(ev.LastPayment), models.FormatDate(ev.RestingUntil), remaining)
	}

	start := models.Day(now)
	switch {
	case admission != nil:
		start = *admission
	case study.AdmissionDate != nil:
		start = *study.AdmissionDate
	}

	p, err := models.NewParticipation(id.NewParticipationID(), v.ID, study.ID, start, justification, now)
	if err != nil {
		return nil, audit.Record{}, translateInvariant(err)
	}
	if err := st.CreateParticipation(ctx, p); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEnrollment):
			return nil, audit.Record{}, duplicateEnrollment(v, study)
		case errors.Is(err, store.ErrActiveParticipation):
			return nil, audit.Record{}, activeParticipation(v, nil)
		default:
			return nil, audit.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save participation")
		}
	}

	rec := audit.Record{
		Action:        audit.ActionCreate,
		Model:         audit.ModelParticipation,
		RecordID:      participationRecordID(v.Code, study.Name),
		Justification: justification,
		Changes: audit.NewChangeSet().
			Add(audit.FieldVolunteer, v.Code).
			Add(audit.FieldStudy, study.Name).
			Add(audit.FieldAdmissionDate, dateValue(&p.AdmissionDate)).
			Add(audit.FieldPaymentDate, nil).
			Add(audit.FieldIsActive, true),
	}
	return p, rec, nil
}

func duplicateEnrollment(v *models.Volunteer, study *models.Study) error {
	return dErrors.Newf(dErrors.CodeConflict,
		"El voluntario %s ya tiene una participación registrada en el estudio %q", v.Code, study.Name)
}

func activeParticipation(v *models.Volunteer, active *models.Study) error {
	if active == nil {
		return dErrors.Newf(dErrors.CodeConflict,
			"El voluntario %s ya tiene una participación activa en otro estudio", v.Code)
	}
	return dErrors.Newf(dErrors.CodeConflict,
		"El voluntario %s ya tiene una participación activa en el estudio %q", v.Code, active.Name)
}

// CloseRequest closes an active participation.
type CloseRequest struct {
	ParticipationID id.ParticipationID
	PaymentDate     time.Time
	Justification   string
	// Trigger labels the close in metrics: "manual" or "closeout".
	Trigger string
}

// CloseParticipation sets the payment date, which ends the participation
// and starts the volunteer's washout.
func (s *Service) CloseParticipation(ctx context.Context, req CloseRequest) (_ *ParticipationView, err error) {
	ctx, finish := s.startSpan(ctx, "CloseParticipation",
		attribute.String("participation_id", req.ParticipationID.String()))
	defer finish(&err)

	justification, err := requireJustification(req.Justification, msgJustificationClose)
	if err != nil {
		return nil, err
	}
	if req.PaymentDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "La fecha de pago es obligatoria")
	}

	now := requestcontext.Now(ctx)
	var (
		closed *models.Participation
		study  *models.Study
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		p, err := st.FindParticipation(ctx, req.ParticipationID)
		if err != nil {
			return notFoundOr(err, msgParticipationGone, "failed to load participation")
		}
		v, err := st.LockVolunteer(ctx, p.VolunteerID)
		if err != nil {
			return notFoundOr(err, msgVolunteerNotFound, "failed to load volunteer")
		}
		// Re-read under the volunteer lock.
		if p, err = st.FindParticipation(ctx, req.ParticipationID); err != nil {
			return notFoundOr(err, msgParticipationGone, "failed to load participation")
		}
		if err := p.CanClose(req.PaymentDate); err != nil {
			return dErrors.New(dErrors.CodeConflict, dErrors.Message(err))
		}
		if study, err = st.FindStudy(ctx, p.StudyID); err != nil {
			return notFoundOr(err, msgStudyNotFound, "failed to load study")
		}

		p.ApplyClose(req.PaymentDate, now)
		if err := st.UpdateParticipation(ctx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save participation")
		}
		closed = p
		return s.record(ctx, audit.Record{
			Action:        audit.ActionUpdate,
			Model:         audit.ModelParticipation,
			RecordID:      participationRecordID(v.Code, study.Name),
			Justification: justification,
			Changes: audit.NewChangeSet().
				Compare(audit.FieldPaymentDate, nil, dateValue(p.PaymentDate)).
				Compare(audit.FieldIsActive, true, false),
		})
	})
	if err != nil {
		return nil, passThrough(err, "failed to close participation")
	}

	if s.metrics != nil {
		trigger := req.Trigger
		if trigger == "" {
			trigger = "manual"
		}
		s.metrics.IncrementParticipationClosed(trigger)
	}
	return &ParticipationView{Participation: closed, StudyName: study.Name}, nil
}
