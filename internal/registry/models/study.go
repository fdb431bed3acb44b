package models

import (
	"strings"
	"time"

	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
)

// Study is a trial cohort volunteers can be enrolled into.
//
// Invariants:
//   - Name is non-empty and unique (case-insensitive, enforced by the store)
//   - When both dates are set, PaymentDate is strictly after AdmissionDate
type Study struct {
	ID            id.StudyID
	Name          string
	Description   string
	AdmissionDate *time.Time
	PaymentDate   *time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StudyFields are the admin-editable attributes of a study.
type StudyFields struct {
	Name          string
	Description   string
	AdmissionDate *time.Time
	PaymentDate   *time.Time
	IsActive      bool
}

func (f *StudyFields) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.AdmissionDate = DayPtr(f.AdmissionDate)
	f.PaymentDate = DayPtr(f.PaymentDate)
}

func (f StudyFields) validate() error {
	if f.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "El nombre del estudio es obligatorio")
	}
	if len(f.Name) > 200 {
		return dErrors.New(dErrors.CodeInvariantViolation, "El nombre del estudio no puede exceder 200 caracteres")
	}
	return ValidateDateOrder(f.AdmissionDate, f.PaymentDate)
}

// ValidateDateOrder enforces payment strictly after admission when both are set.
func ValidateDateOrder(admission, payment *time.Time) error {
	if admission == nil || payment == nil {
		return nil
	}
	if !payment.After(*admission) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"La fecha de pago debe ser posterior a la fecha de internamiento")
	}
	return nil
}

// NewStudy validates fields and builds a study.
func NewStudy(studyID id.StudyID, f StudyFields, now time.Time) (*Study, error) {
	f.normalize()
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &Study{
		ID:            studyID,
		Name:          f.Name,
		Description:   f.Description,
		AdmissionDate: f.AdmissionDate,
		PaymentDate:   f.PaymentDate,
		IsActive:      f.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Fields returns the editable attributes of s.
func (s *Study) Fields() StudyFields {
	return StudyFields{
		Name:          s.Name,
		Description:   s.Description,
		AdmissionDate: s.AdmissionDate,
		PaymentDate:   s.PaymentDate,
		IsActive:      s.IsActive,
	}
}

// StudyPatch carries a partial update; nil fields are left untouched.
type StudyPatch struct {
	Name               *string
	Description        *string
	AdmissionDate      *time.Time
	ClearAdmissionDate bool
	PaymentDate        *time.Time
	ClearPaymentDate   bool
	IsActive           *bool
}

func (p StudyPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.AdmissionDate == nil && !p.ClearAdmissionDate &&
		p.PaymentDate == nil && !p.ClearPaymentDate && p.IsActive == nil
}

// Apply returns the fields that result from applying p to f, normalized and
// validated with the same rules as creation.
func (p StudyPatch) Apply(f StudyFields) (StudyFields, error) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.ClearAdmissionDate {
		f.AdmissionDate = nil
	}
	if p.AdmissionDate != nil {
		f.AdmissionDate = p.AdmissionDate
	}
	if p.ClearPaymentDate {
		f.PaymentDate = nil
	}
	if p.PaymentDate != nil {
		f.PaymentDate = p.PaymentDate
	}
	if p.IsActive != nil {
		f.IsActive = *p.IsActive
	}
	f.normalize()
	if err := f.validate(); err != nil {
		return StudyFields{}, err
	}
	return f, nil
}

// ApplyFields overwrites the editable attributes.
func (s *Study) ApplyFields(f StudyFields, now time.Time) {
	s.Name = f.Name
	s.Description = f.Description
	s.AdmissionDate = f.AdmissionDate
	s.PaymentDate = f.PaymentDate
	s.IsActive = f.IsActive
	s.UpdatedAt = now
}
