package service

import (
	"context"
	"time"

	"trialreg/internal/audit"
	"trialreg/internal/registry/eligibility"
	"trialreg/internal/registry/models"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
)

// ParticipationView is a participation with its study resolved.
type ParticipationView struct {
	*models.Participation
	StudyName string
}

// VolunteerView is a volunteer with its derived state.
type VolunteerView struct {
	Volunteer      *models.Volunteer
	Status         models.Status
	Age            *int
	ActiveStudy    *models.Study
	RestingUntil   *time.Time
	Participations []ParticipationView
}

// IsEligible reports whether the volunteer can be enrolled right now by
// status alone.
func (v *VolunteerView) IsEligible() bool {
	return v.Status == models.StatusEligible
}

func (s *Service) buildView(now time.Time, v *models.Volunteer, ps []*models.Participation, studies eligibility.Studies) *VolunteerView {
	ev := s.engine.Evaluate(now, v, ps, studies)
	view := &VolunteerView{
		Volunteer:      v,
		Status:         ev.Status,
		Age:            ev.Age,
		ActiveStudy:    ev.ActiveStudy,
		RestingUntil:   ev.RestingUntil,
		Participations: participationViews(ps, studies),
	}
	return view
}

func participationViews(ps []*models.Participation, studies eligibility.Studies) []ParticipationView {
	out := make([]ParticipationView, 0, len(ps))
	for _, p := range ps {
		pv := ParticipationView{Participation: p}
		if st, ok := studies[p.StudyID]; ok {
			pv.StudyName = st.Name
		}
		out = append(out, pv)
	}
	return out
}

// loadStudies indexes every study. The catalog is small and read whole so
// evaluations never miss a reference.
func loadStudies(ctx context.Context, st Store) (eligibility.Studies, error) {
	all, err := st.ListStudies(ctx, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load studies")
	}
	out := make(eligibility.Studies, len(all))
	for _, study := range all {
		out[study.ID] = study
	}
	return out, nil
}

func (s *Service) loadView(ctx context.Context, st Store, now time.Time, v *models.Volunteer) (*VolunteerView, error) {
	ps, err := st.ListParticipations(ctx, v.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participations")
	}
	studies, err := loadStudies(ctx, st)
	if err != nil {
		return nil, err
	}
	return s.buildView(now, v, ps, studies), nil
}

// participationRecordID names a participation in the audit log.
func participationRecordID(code, studyName string) string {
	return code + " -> Estudio " + studyName
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(models.DateLayout)
}

func volunteerSnapshot(v *models.Volunteer) audit.ChangeSet {
	return audit.NewChangeSet().
		Add(audit.FieldCode, v.Code).
		Add(audit.FieldFirstName, v.FirstName).
		Add(audit.FieldMiddleName, v.MiddleName).
		Add(audit.FieldLastNamePaternal, v.LastNamePaternal).
		Add(audit.FieldLastNameMaternal, v.LastNameMaternal).
		Add(audit.FieldBirthDate, dateValue(v.BirthDate)).
		Add(audit.FieldSex, string(v.Sex)).
		Add(audit.FieldPhone, v.Phone).
		Add(audit.FieldCURP, v.CURP)
}

func demographicsDiff(from, to models.Demographics) audit.ChangeSet {
	return audit.NewChangeSet().
		Compare(audit.FieldFirstName, from.FirstName, to.FirstName).
		Compare(audit.FieldMiddleName, from.MiddleName, to.MiddleName).
		Compare(audit.FieldLastNamePaternal, from.LastNamePaternal, to.LastNamePaternal).
		Compare(audit.FieldLastNameMaternal, from.LastNameMaternal, to.LastNameMaternal).
		Compare(audit.FieldBirthDate, dateValue(from.BirthDate), dateValue(to.BirthDate)).
		Compare(audit.FieldSex, string(from.Sex), string(to.Sex)).
		Compare(audit.FieldPhone, from.Phone, to.Phone).
		Compare(audit.FieldCURP, from.CURP, to.CURP)
}

func studySnapshot(f models.StudyFields) audit.ChangeSet {
	return audit.NewChangeSet().
		Add(audit.FieldName, f.Name).
		Add(audit.FieldDescription, f.Description).
		Add(audit.FieldAdmissionDate, dateValue(f.AdmissionDate)).
		Add(audit.FieldPaymentDate, dateValue(f.PaymentDate)).
		Add(audit.FieldIsActive, f.IsActive)
}

func studyDiff(from, to models.StudyFields) audit.ChangeSet {
	return audit.NewChangeSet().
		Compare(audit.FieldName, from.Name, to.Name).
		Compare(audit.FieldDescription, from.Description, to.Description).
		Compare(audit.FieldAdmissionDate, dateValue(from.AdmissionDate), dateValue(to.AdmissionDate)).
		Compare(audit.FieldPaymentDate, dateValue(from.PaymentDate), dateValue(to.PaymentDate)).
		Compare(audit.FieldIsActive, from.IsActive, to.IsActive)
}

func collectIDs(vs []*models.Volunteer) []id.VolunteerID {
	out := make([]id.VolunteerID, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}
