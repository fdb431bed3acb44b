package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"trialreg/internal/audit"
	"trialreg/internal/registry/models"
	"trialreg/internal/registry/store"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/requestcontext"
)

// CreateStudy adds a study to the catalog. Creation needs no justification;
// the CREATE entry carries the full initial snapshot.
func (s *Service) CreateStudy(ctx context.Context, fields models.StudyFields) (_ *models.Study, err error) {
	ctx, finish := s.startSpan(ctx, "CreateStudy")
	defer finish(&err)

	now := requestcontext.Now(ctx)
	study, err := models.NewStudy(id.NewStudyID(), fields, now)
	if err != nil {
		return nil, translateInvariant(err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		if err := st.CreateStudy(ctx, study); err != nil {
			return studyWriteError(err, study)
		}
		return s.record(ctx, audit.Record{
			Action:   audit.ActionCreate,
			Model:    audit.ModelStudy,
			RecordID: study.Name,
			Changes:  studySnapshot(study.Fields()),
		})
	})
	if err != nil {
		return nil, passThrough(err, "failed to create study")
	}
	return study, nil
}

// UpdateStudy applies a patch and re-validates the date order exactly as
// creation does.
func (s *Service) UpdateStudy(ctx context.Context, studyID id.StudyID, patch models.StudyPatch, justification string) (_ *models.Study, err error) {
	ctx, finish := s.startSpan(ctx, "UpdateStudy", attribute.String("study_id", studyID.String()))
	defer finish(&err)

	if justification, err = requireJustification(justification, msgJustificationEdit); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "No se enviaron campos para actualizar")
	}

	now := requestcontext.Now(ctx)
	var updated *models.Study
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		study, err := st.LockStudy(ctx, studyID)
		if err != nil {
			return notFoundOr(err, msgStudyNotFound, "failed to load study")
		}

		before := study.Fields()
		next, err := patch.Apply(before)
		if err != nil {
			return translateInvariant(err)
		}
		changes := studyDiff(before, next)
		if changes.IsEmpty() {
			updated = study
			return nil
		}

		study.ApplyFields(next, now)
		if err := st.UpdateStudy(ctx, study); err != nil {
			return studyWriteError(err, study)
		}
		updated = study
		return s.record(ctx, audit.Record{
			Action:        audit.ActionUpdate,
			Model:         audit.ModelStudy,
			RecordID:      study.Name,
			Justification: justification,
			Changes:       changes,
		})
	})
	if err != nil {
		return nil, passThrough(err, "failed to update study")
	}
	return updated, nil
}

func studyWriteError(err error, study *models.Study) error {
	switch {
	case errors.Is(err, store.ErrDuplicateStudyName):
		return dErrors.Newf(dErrors.CodeConflict, "Ya existe un estudio con el nombre %q", study.Name)
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, msgStudyNotFound)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save study")
	}
}

// GetStudy returns one study.
func (s *Service) GetStudy(ctx context.Context, studyID id.StudyID) (*models.Study, error) {
	study, err := s.store.FindStudy(ctx, studyID)
	if err != nil {
		return nil, notFoundOr(err, msgStudyNotFound, "failed to load study")
	}
	return study, nil
}

// ListStudies returns the catalog ordered by name.
func (s *Service) ListStudies(ctx context.Context, activeOnly bool) ([]*models.Study, error) {
	studies, err := s.store.ListStudies(ctx, activeOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list studies")
	}
	return studies, nil
}

// ActiveParticipationsByStudy lists the open participations of a study.
func (s *Service) ActiveParticipationsByStudy(ctx context.Context, studyID id.StudyID) ([]*models.Participation, error) {
	ps, err := s.store.ListActiveParticipationsByStudy(ctx, studyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participations")
	}
	return ps, nil
}
