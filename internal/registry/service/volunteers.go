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

// InitialEnrollment optionally accompanies a registration.
type InitialEnrollment struct {
	StudyID       id.StudyID
	AdmissionDate *time.Time
	Justification string
}

// CreateVolunteerRequest registers a new volunteer.
type CreateVolunteerRequest struct {
	Demographics models.Demographics
	Initial      *InitialEnrollment
}

// CreateVolunteer registers a volunteer and, when requested, enrolls it in a
// study. Both happen in one transaction: a failed enrollment leaves neither
// the volunteer nor any audit entry behind.
func (s *Service) CreateVolunteer(ctx context.Context, req CreateVolunteerRequest) (_ *VolunteerView, err error) {
	ctx, finish := s.startSpan(ctx, "CreateVolunteer",
		attribute.Bool("initial_enrollment", req.Initial != nil))
	defer finish(&err)

	now := requestcontext.Now(ctx)
	if req.Initial != nil {
		if req.Initial.Justification, err = requireJustification(req.Initial.Justification, msgJustificationEnroll); err != nil {
			return nil, err
		}
	}

	d := req.Demographics
	d.Normalize()
	if err := d.Validate(now); err != nil {
		return nil, translateInvariant(err)
	}

	var created *models.Volunteer
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		code, err := s.allocateCode(ctx, st, d, now)
		if err != nil {
			return err
		}
		v, err := models.NewVolunteer(id.NewVolunteerID(), code, d, now)
		if err != nil {
			return translateInvariant(err)
		}
		if err := st.CreateVolunteer(ctx, v); err != nil {
			return volunteerWriteError(err, v)
		}

		recs := []audit.Record{{
			Action:   audit.ActionCreate,
			Model:    audit.ModelVolunteer,
			RecordID: v.Code,
			Changes:  volunteerSnapshot(v),
		}}

		if req.Initial != nil {
			_, rec, err := s.enrollLocked(ctx, st, v, req.Initial.StudyID, req.Initial.AdmissionDate, req.Initial.Justification, now)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}

		created = v
		return s.record(ctx, recs...)
	})
	if err != nil {
		if req.Initial != nil && s.metrics != nil {
			s.metrics.IncrementEnrollment("rejected")
		}
		return nil, passThrough(err, "failed to create volunteer")
	}

	if s.metrics != nil {
		s.metrics.IncrementVolunteersCreated()
		if req.Initial != nil {
			s.metrics.IncrementEnrollment("created")
		}
	}
	s.logger.InfoContext(ctx, "volunteer registered",
		"volunteer_code", created.Code,
		"initial_enrollment", req.Initial != nil,
		"request_id", requestcontext.RequestID(ctx),
	)

	return s.loadView(ctx, s.store, now, created)
}

func (s *Service) allocateCode(ctx context.Context, st Store, d models.Demographics, now time.Time) (string, error) {
	year := now.Year()
	var (
		seq int64
		err error
	)
	if s.codes != nil {
		seq, err = s.codes.Next(ctx, year)
	} else {
		seq, err = st.NextCodeSequence(ctx, year)
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate volunteer code")
	}
	return models.FormatCode(models.Initials(d), year, seq), nil
}

func volunteerWriteError(err error, v *models.Volunteer) error {
	switch {
	case errors.Is(err, store.ErrDuplicateCURP):
		return dErrors.Newf(dErrors.CodeConflict, "Ya existe un voluntario registrado con la CURP %s", v.CURP)
	case errors.Is(err, store.ErrDuplicateCode):
		return dErrors.New(dErrors.CodeConflict, "El código de voluntario generado ya existe; intente de nuevo")
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, msgVolunteerNotFound)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save volunteer")
	}
}

// UpdateVolunteer applies a demographic patch. Unchanged fields are not
// audited and a patch that changes nothing writes nothing.
func (s *Service) UpdateVolunteer(ctx context.Context, volunteerID id.VolunteerID, patch models.DemographicsPatch, justification string) (_ *VolunteerView, err error) {
	ctx, finish := s.startSpan(ctx, "UpdateVolunteer", attribute.String("volunteer_id", volunteerID.String()))
	defer finish(&err)

	if justification, err = requireJustification(justification, msgJustificationEdit); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "No se enviaron campos para actualizar")
	}

	now := requestcontext.Now(ctx)
	var updated *models.Volunteer
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		v, err := st.LockVolunteer(ctx, volunteerID)
		if err != nil {
			return notFoundOr(err, msgVolunteerNotFound, "failed to load volunteer")
		}

		next := patch.Apply(v.Demographics)
		next.Normalize()
		if err := next.Validate(now); err != nil {
			return translateInvariant(err)
		}

		changes := demographicsDiff(v.Demographics, next)
		if changes.IsEmpty() {
			updated = v
			return nil
		}

		v.Demographics = next
		v.UpdatedAt = now
		if err := st.UpdateVolunteer(ctx, v); err != nil {
			return volunteerWriteError(err, v)
		}
		updated = v
		return s.record(ctx, audit.Record{
			Action:        audit.ActionUpdate,
			Model:         audit.ModelVolunteer,
			RecordID:      v.Code,
			Justification: justification,
			Changes:       changes,
		})
	})
	if err != nil {
		return nil, passThrough(err, "failed to update volunteer")
	}
	return s.loadView(ctx, s.store, now, updated)
}

// DictumRequest records an administrative dictum.
type DictumRequest struct {
	VolunteerID   id.VolunteerID
	Status        string
	Reason        string
	Justification string
}

// SetManualDictum records the admin's dictum. The derived status is not
// touched; it is recomputed on the next read.
func (s *Service) SetManualDictum(ctx context.Context, req DictumRequest) (_ *VolunteerView, err error) {
	ctx, finish := s.startSpan(ctx, "SetManualDictum",
		attribute.String("volunteer_id", req.VolunteerID.String()),
		attribute.String("dictum", req.Status))
	defer finish(&err)

	status, err := models.ParseManualStatus(req.Status)
	if err != nil {
		return nil, err
	}
	var blank models.Volunteer
	if err := blank.CanSetDictum(status, req.Reason); err != nil {
		return nil, err
	}
	justification, err := requireJustification(req.Justification, msgJustificationEdit)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *models.Volunteer
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		v, err := st.LockVolunteer(ctx, req.VolunteerID)
		if err != nil {
			return notFoundOr(err, msgVolunteerNotFound, "failed to load volunteer")
		}
		if err := v.CanSetDictum(status, req.Reason); err != nil {
			return err
		}

		before := *v
		v.ApplyDictum(status, req.Reason, now)
		changes := audit.NewChangeSet().
			Compare(audit.FieldManualStatus, string(before.ManualStatus), string(v.ManualStatus)).
			Compare(audit.FieldStatusReason, before.StatusReason, v.StatusReason)
		if changes.IsEmpty() {
			updated = &before
			return nil
		}

		if err := st.UpdateVolunteer(ctx, v); err != nil {
			return volunteerWriteError(err, v)
		}
		updated = v
		return s.record(ctx, audit.Record{
			Action:        audit.ActionUpdate,
			Model:         audit.ModelVolunteer,
			RecordID:      v.Code,
			Justification: justification,
			Changes:       changes,
		})
	})
	if err != nil {
		return nil, passThrough(err, "failed to set dictum")
	}

	if s.metrics != nil {
		s.metrics.IncrementDictum(string(status))
	}
	return s.loadView(ctx, s.store, now, updated)
}

// GetVolunteer returns a volunteer with its derived status and history.
func (s *Service) GetVolunteer(ctx context.Context, volunteerID id.VolunteerID) (*VolunteerView, error) {
	v, err := s.store.FindVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, notFoundOr(err, msgVolunteerNotFound, "failed to load volunteer")
	}
	return s.loadView(ctx, s.store, requestcontext.Now(ctx), v)
}

// ListVolunteersRequest filters the volunteer listing.
type ListVolunteersRequest struct {
	Search string
	// Status keeps only volunteers whose derived status matches.
	Status *models.Status
}

// ListVolunteers returns volunteers newest first, each evaluated at the
// request time.
func (s *Service) ListVolunteers(ctx context.Context, req ListVolunteersRequest) ([]*VolunteerView, error) {
	now := requestcontext.Now(ctx)

	vs, err := s.store.ListVolunteers(ctx, models.VolunteerFilter{Search: req.Search})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list volunteers")
	}
	byVolunteer, err := s.store.ListParticipationsFor(ctx, collectIDs(vs))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participations")
	}
	studies, err := loadStudies(ctx, s.store)
	if err != nil {
		return nil, err
	}

	out := make([]*VolunteerView, 0, len(vs))
	for _, v := range vs {
		view := s.buildView(now, v, byVolunteer[v.ID], studies)
		if req.Status != nil && view.Status != *req.Status {
			continue
		}
		out = append(out, view)
	}
	return out, nil
}
