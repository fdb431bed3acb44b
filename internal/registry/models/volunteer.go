package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
)

// CURPLength is the fixed length of the national id (CURP).
const CURPLength = 18

// Sex of a volunteer as recorded on the national id.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

func (s Sex) IsValid() bool {
	return s == SexMale || s == SexFemale
}

// ManualStatus is the administrative dictum set by an admin. The zero value
// means no dictum has ever been recorded.
type ManualStatus string

const (
	ManualStatusUnset           ManualStatus = ""
	ManualStatusWaitingApproval ManualStatus = "waiting_approval"
	ManualStatusEligible        ManualStatus = "eligible"
	ManualStatusRejected        ManualStatus = "rejected"
)

// ParseManualStatus validates a dictum received from a caller. The unset
// value is not accepted: a dictum, once given, is always one of the three.
func ParseManualStatus(s string) (ManualStatus, error) {
	switch ms := ManualStatus(strings.TrimSpace(s)); ms {
	case ManualStatusWaitingApproval, ManualStatusEligible, ManualStatusRejected:
		return ms, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation,
			"Dictamen inválido %q: use waiting_approval, eligible o rejected", s)
	}
}

// RequiresReason reports whether the dictum must carry a status reason.
func (m ManualStatus) RequiresReason() bool {
	return m == ManualStatusEligible || m == ManualStatusRejected
}

// Demographics are the admin-editable identity attributes of a volunteer.
type Demographics struct {
	FirstName        string
	MiddleName       string
	LastNamePaternal string
	LastNameMaternal string
	BirthDate        *time.Time
	Sex              Sex
	Phone            string
	CURP             string
}

// Normalize trims free text, uppercases the CURP and truncates the birth date to a day.
func (d *Demographics) Normalize() {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.MiddleName = strings.TrimSpace(d.MiddleName)
	d.LastNamePaternal = strings.TrimSpace(d.LastNamePaternal)
	d.LastNameMaternal = strings.TrimSpace(d.LastNameMaternal)
	d.Phone = strings.TrimSpace(d.Phone)
	d.CURP = NormalizeCURP(d.CURP)
	d.Sex = Sex(strings.ToUpper(strings.TrimSpace(string(d.Sex))))
	if d.BirthDate != nil {
		day := Day(*d.BirthDate)
		d.BirthDate = &day
	}
}

// Validate checks the demographic invariants at time now.
func (d Demographics) Validate(now time.Time) error {
	switch {
	case d.FirstName == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "El primer nombre es obligatorio")
	case d.LastNamePaternal == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "El apellido paterno es obligatorio")
	case d.LastNameMaternal == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "El apellido materno es obligatorio")
	case d.Phone == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "El teléfono es obligatorio")
	case !d.Sex.IsValid():
		return dErrors.New(dErrors.CodeInvariantViolation, "El sexo debe ser M o F")
	}
	if d.CURP != "" && utf8.RuneCountInString(d.CURP) != CURPLength {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"La CURP debe tener exactamente %d caracteres", CURPLength)
	}
	if d.BirthDate != nil && d.BirthDate.After(now) {
		return dErrors.New(dErrors.CodeInvariantViolation, "La fecha de nacimiento no puede estar en el futuro")
	}
	return nil
}

// NormalizeCURP trims and uppercases a national id.
func NormalizeCURP(curp string) string {
	return strings.ToUpper(strings.TrimSpace(curp))
}

// Volunteer is a trial participant.
//
// Invariants:
//   - Code is assigned at construction and never changes
//   - CURP is empty or exactly 18 characters, unique across volunteers (store)
//   - StatusReason is non-empty whenever ManualStatus is eligible or rejected
//   - Volunteers are never deleted; status transitions replace deletion
//
// The human-facing status is not stored; the eligibility engine derives it.
type Volunteer struct {
	ID   id.VolunteerID
	Code string
	Demographics
	ManualStatus ManualStatus
	StatusReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewVolunteer builds a volunteer with a freshly allocated code.
func NewVolunteer(volunteerID id.VolunteerID, code string, d Demographics, now time.Time) (*Volunteer, error) {
	d.Normalize()
	if err := d.Validate(now); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "volunteer code cannot be empty")
	}
	return &Volunteer{
		ID:           volunteerID,
		Code:         code,
		Demographics: d,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FullName joins the name parts, skipping an empty middle name.
func (v *Volunteer) FullName() string {
	parts := []string{v.FirstName}
	if v.MiddleName != "" {
		parts = append(parts, v.MiddleName)
	}
	parts = append(parts, v.LastNamePaternal, v.LastNameMaternal)
	return strings.Join(parts, " ")
}

// CanSetDictum validates a dictum change.
func (v *Volunteer) CanSetDictum(status ManualStatus, reason string) error {
	if status.RequiresReason() && strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation,
			"El motivo es obligatorio cuando el dictamen es apto o rechazado")
	}
	return nil
}

// ApplyDictum records the dictum. Call CanSetDictum first.
func (v *Volunteer) ApplyDictum(status ManualStatus, reason string, now time.Time) {
	v.ManualStatus = status
	v.StatusReason = strings.TrimSpace(reason)
	v.UpdatedAt = now
}

// DemographicsPatch carries a partial update; nil fields are left untouched.
type DemographicsPatch struct {
	FirstName        *string
	MiddleName       *string
	LastNamePaternal *string
	LastNameMaternal *string
	BirthDate        *time.Time
	ClearBirthDate   bool
	Sex              *Sex
	Phone            *string
	CURP             *string
}

// IsEmpty reports whether the patch changes nothing.
func (p DemographicsPatch) IsEmpty() bool {
	return p.FirstName == nil && p.MiddleName == nil && p.LastNamePaternal == nil &&
		p.LastNameMaternal == nil && p.BirthDate == nil && !p.ClearBirthDate &&
		p.Sex == nil && p.Phone == nil && p.CURP == nil
}

// Apply returns the demographics that result from applying p to d.
func (p DemographicsPatch) Apply(d Demographics) Demographics {
	if p.FirstName != nil {
		d.FirstName = *p.FirstName
	}
	if p.MiddleName != nil {
		d.MiddleName = *p.MiddleName
	}
	if p.LastNamePaternal != nil {
		d.LastNamePaternal = *p.LastNamePaternal
	}
	if p.LastNameMaternal != nil {
		d.LastNameMaternal = *p.LastNameMaternal
	}
	if p.ClearBirthDate {
		d.BirthDate = nil
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		d.BirthDate = &bd
	}
	if p.Sex != nil {
		d.Sex = *p.Sex
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	if p.CURP != nil {
		d.CURP = *p.CURP
	}
	return d
}

// Initials returns the uppercase initials used in volunteer codes:
// first name, paternal and maternal last names.
func Initials(d Demographics) string {
	var b strings.Builder
	for _, part := range []string{d.FirstName, d.LastNamePaternal, d.LastNameMaternal} {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(part))
		if r == utf8.RuneError {
			b.WriteRune('X')
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// FormatCode renders a volunteer code, e.g. ABC-2026-0001.
func FormatCode(initials string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", initials, year, seq)
}

// VolunteerFilter narrows a volunteer listing. Search matches code, first
// name, paternal last name or CURP, case-insensitively.
type VolunteerFilter struct {
	Search string
}

// Query is the search term as stores compare it: trimmed and lowercased.
func (f VolunteerFilter) Query() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

// Matches applies the search to v.
func (f VolunteerFilter) Matches(v *Volunteer) bool {
	q := f.Query()
	if q == "" {
		return true
	}
	for _, field := range []string{v.Code, v.FirstName, v.LastNamePaternal, v.CURP} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
