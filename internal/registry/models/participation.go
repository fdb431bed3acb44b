package models

import (
	"strings"
	"time"

	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
)

// Participation links a volunteer to a study.
//
// Invariants:
//   - IsActive() is derived: true while PaymentDate is nil
//   - At most one active participation per volunteer (coordinator + store)
//   - At most one participation per (volunteer, study) (coordinator + store)
//   - PaymentDate, once set, is strictly after AdmissionDate and never cleared
//   - Participations are never deleted
type Participation struct {
	ID            id.ParticipationID
	VolunteerID   id.VolunteerID
	StudyID       id.StudyID
	AdmissionDate time.Time
	PaymentDate   *time.Time
	Justification string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewParticipation builds an active participation.
func NewParticipation(pid id.ParticipationID, volunteerID id.VolunteerID, studyID id.StudyID,
	admission time.Time, justification string, now time.Time) (*Participation, error) {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "La justificación es obligatoria")
	}
	if admission.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "La fecha de internamiento es obligatoria")
	}
	return &Participation{
		ID:            pid,
		VolunteerID:   volunteerID,
		StudyID:       studyID,
		AdmissionDate: Day(admission),
		Justification: justification,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsActive reports whether the engagement is still open.
func (p *Participation) IsActive() bool {
	return p.PaymentDate == nil
}

// CanClose validates closing the participation on paymentDate.
func (p *Participation) CanClose(paymentDate time.Time) error {
	if !p.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "La participación ya fue cerrada")
	}
	if !Day(paymentDate).After(p.AdmissionDate) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"La fecha de pago debe ser posterior a la fecha de internamiento")
	}
	return nil
}

// ApplyClose sets the payment date, which makes the participation inactive.
// Call CanClose first.
func (p *Participation) ApplyClose(paymentDate, now time.Time) {
	day := Day(paymentDate)
	p.PaymentDate = &day
	p.UpdatedAt = now
}

// ActiveParticipation returns the open participation in ps, if any.
func ActiveParticipation(ps []*Participation) *Participation {
	for _, p := range ps {
		if p.IsActive() {
			return p
		}
	}
	return nil
}

// FindByStudy returns the participation of ps in studyID, if any.
func FindByStudy(ps []*Participation, studyID id.StudyID) *Participation {
	for _, p := range ps {
		if p.StudyID == studyID {
			return p
		}
	}
	return nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayPtr is Day for optional dates.
func DayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

// DateLayout is the wire and audit format for calendar dates.
const DateLayout = "2006-01-02"

// FormatDate renders an optional date, empty when nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
