package handler

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/service"
	dErrors "trialreg/pkg/domain-errors"
)

// date is a calendar day encoded as YYYY-MM-DD.
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "las fechas deben tener formato AAAA-MM-DD")
	}
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return dErrors.Newf(dErrors.CodeBadRequest, "fecha inválida %q: use AAAA-MM-DD", s)
	}
	d.Time = t
	return nil
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// optionalDate distinguishes an absent field from an explicit null in
// partial updates.
type optionalDate struct {
	Set   bool
	Value *date
}

func (o *optionalDate) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	o.Value = new(date)
	return o.Value.UnmarshalJSON(b)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

type initialEnrollmentRequest struct {
	StudyID       string `json:"study_id"`
	AdmissionDate *date  `json:"admission_date"`
	Justification string `json:"justification"`
}

type createVolunteerRequest struct {
	FirstName        string                    `json:"first_name"`
	MiddleName       string                    `json:"middle_name"`
	LastNamePaternal string                    `json:"last_name_paternal"`
	LastNameMaternal string                    `json:"last_name_maternal"`
	BirthDate        *date                     `json:"birth_date"`
	Sex              string                    `json:"sex"`
	Phone            string                    `json:"phone"`
	CURP             string                    `json:"curp"`
	Initial          *initialEnrollmentRequest `json:"initial_enrollment"`

	// Flat form of initial_enrollment sent by the registration form.
	InitialStudyID       string `json:"initial_study_id"`
	InitialAdmissionDate *date  `json:"initial_admission_date"`
	InitialJustification string `json:"initial_justification"`
}

// initial merges the nested and flat initial enrollment fields. Supplying
// both is rejected.
func (r createVolunteerRequest) initial() (*initialEnrollmentRequest, error) {
	flat := r.InitialStudyID != "" || r.InitialAdmissionDate != nil || r.InitialJustification != ""
	switch {
	case r.Initial != nil && flat:
		return nil, dErrors.New(dErrors.CodeBadRequest,
			"use initial_enrollment o los campos initial_*, no ambos")
	case r.Initial != nil:
		return r.Initial, nil
	case flat:
		return &initialEnrollmentRequest{
			StudyID:       r.InitialStudyID,
			AdmissionDate: r.InitialAdmissionDate,
			Justification: r.InitialJustification,
		}, nil
	}
	return nil, nil
}

func (r createVolunteerRequest) demographics() models.Demographics {
	return models.Demographics{
		FirstName:        r.FirstName,
		MiddleName:       r.MiddleName,
		LastNamePaternal: r.LastNamePaternal,
		LastNameMaternal: r.LastNameMaternal,
		BirthDate:        r.BirthDate.ptr(),
		Sex:              models.Sex(r.Sex),
		Phone:            r.Phone,
		CURP:             r.CURP,
	}
}

type updateVolunteerRequest struct {
	FirstName        *string      `json:"first_name"`
	MiddleName       *string      `json:"middle_name"`
	LastNamePaternal *string      `json:"last_name_paternal"`
	LastNameMaternal *string      `json:"last_name_maternal"`
	BirthDate        optionalDate `json:"birth_date"`
	Sex              *string      `json:"sex"`
	Phone            *string      `json:"phone"`
	CURP             *string      `json:"curp"`
	Justification    string       `json:"justification"`
}

func (r updateVolunteerRequest) patch() models.DemographicsPatch {
	p := models.DemographicsPatch{
		FirstName:        r.FirstName,
		MiddleName:       r.MiddleName,
		LastNamePaternal: r.LastNamePaternal,
		LastNameMaternal: r.LastNameMaternal,
		Phone:            r.Phone,
		CURP:             r.CURP,
	}
	if r.Sex != nil {
		sex := models.Sex(*r.Sex)
		p.Sex = &sex
	}
	if r.BirthDate.Set {
		if r.BirthDate.Value == nil {
			p.ClearBirthDate = true
		} else {
			p.BirthDate = r.BirthDate.Value.ptr()
		}
	}
	return p
}

type dictumRequest struct {
	Status        string `json:"status"`
	Reason        string `json:"reason"`
	Justification string `json:"justification"`
}

type enrollRequest struct {
	StudyID       string `json:"study_id"`
	AdmissionDate *date  `json:"admission_date"`
	Justification string `json:"justification"`
}

type closeRequest struct {
	PaymentDate   *date  `json:"payment_date"`
	Justification string `json:"justification"`
}

type studyRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	AdmissionDate *date  `json:"admission_date"`
	PaymentDate   *date  `json:"payment_date"`
	IsActive      *bool  `json:"is_active"`
}

func (r studyRequest) fields() models.StudyFields {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return models.StudyFields{
		Name:          r.Name,
		Description:   r.Description,
		AdmissionDate: r.AdmissionDate.ptr(),
		PaymentDate:   r.PaymentDate.ptr(),
		IsActive:      active,
	}
}

type updateStudyRequest struct {
	Name          *string      `json:"name"`
	Description   *string      `json:"description"`
	AdmissionDate optionalDate `json:"admission_date"`
	PaymentDate   optionalDate `json:"payment_date"`
	IsActive      *bool        `json:"is_active"`
	Justification string       `json:"justification"`
}

func (r updateStudyRequest) patch() models.StudyPatch {
	p := models.StudyPatch{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
	if r.AdmissionDate.Set {
		if r.AdmissionDate.Value == nil {
			p.ClearAdmissionDate = true
		} else {
			p.AdmissionDate = r.AdmissionDate.Value.ptr()
		}
	}
	if r.PaymentDate.Set {
		if r.PaymentDate.Value == nil {
			p.ClearPaymentDate = true
		} else {
			p.PaymentDate = r.PaymentDate.Value.ptr()
		}
	}
	return p
}

type studyResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	AdmissionDate *string   `json:"admission_date"`
	PaymentDate   *string   `json:"payment_date"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toStudyResponse(s *models.Study) studyResponse {
	return studyResponse{
		ID:            s.ID.String(),
		Name:          s.Name,
		Description:   s.Description,
		AdmissionDate: formatDate(s.AdmissionDate),
		PaymentDate:   formatDate(s.PaymentDate),
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

type participationResponse struct {
	ID            string    `json:"id"`
	VolunteerID   string    `json:"volunteer_id"`
	StudyID       string    `json:"study_id"`
	StudyName     string    `json:"study_name"`
	AdmissionDate string    `json:"admission_date"`
	PaymentDate   *string   `json:"payment_date"`
	IsActive      bool      `json:"is_active"`
	Justification string    `json:"justification"`
	CreatedAt     time.Time `json:"created_at"`
}

func toParticipationResponse(p service.ParticipationView) participationResponse {
	return participationResponse{
		ID:            p.ID.String(),
		VolunteerID:   p.VolunteerID.String(),
		StudyID:       p.StudyID.String(),
		StudyName:     p.StudyName,
		AdmissionDate: p.AdmissionDate.Format(models.DateLayout),
		PaymentDate:   formatDate(p.PaymentDate),
		IsActive:      p.IsActive(),
		Justification: p.Justification,
		CreatedAt:     p.CreatedAt,
	}
}

func toParticipationResponses(ps []service.ParticipationView) []participationResponse {
	out := make([]participationResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toParticipationResponse(p))
	}
	return out
}

type volunteerResponse struct {
	ID               string                  `json:"id"`
	Code             string                  `json:"code"`
	FullName         string                  `json:"full_name"`
	FirstName        string                  `json:"first_name"`
	MiddleName       string                  `json:"middle_name"`
	LastNamePaternal string                  `json:"last_name_paternal"`
	LastNameMaternal string                  `json:"last_name_maternal"`
	BirthDate        *string                 `json:"birth_date"`
	Age              *int                    `json:"age"`
	Sex              string                  `json:"sex"`
	Phone            string                  `json:"phone"`
	CURP             string                  `json:"curp"`
	ManualStatus     string                  `json:"manual_status"`
	StatusReason     string                  `json:"status_reason"`
	Status           string                  `json:"status"`
	StatusTone       string                  `json:"status_tone"`
	IsEligible       bool                    `json:"is_eligible"`
	ActiveStudy      *studyResponse          `json:"active_study"`
	RestingUntil     *string                 `json:"resting_until"`
	Participations   []participationResponse `json:"participations,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

func toVolunteerResponse(view *service.VolunteerView, withHistory bool) volunteerResponse {
	v := view.Volunteer
	resp := volunteerResponse{
		ID:               v.ID.String(),
		Code:             v.Code,
		FullName:         v.FullName(),
		FirstName:        v.FirstName,
		MiddleName:       v.MiddleName,
		LastNamePaternal: v.LastNamePaternal,
		LastNameMaternal: v.LastNameMaternal,
		BirthDate:        formatDate(v.BirthDate),
		Age:              view.Age,
		Sex:              string(v.Sex),
		Phone:            v.Phone,
		CURP:             v.CURP,
		ManualStatus:     string(v.ManualStatus),
		StatusReason:     v.StatusReason,
		Status:           string(view.Status),
		StatusTone:       string(view.Status.Tone()),
		IsEligible:       view.IsEligible(),
		RestingUntil:     formatDate(view.RestingUntil),
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if view.ActiveStudy != nil {
		s := toStudyResponse(view.ActiveStudy)
		resp.ActiveStudy = &s
	}
	if withHistory {
		resp.Participations = toParticipationResponses(view.Participations)
	}
	return resp
}

type statusResponse struct {
	Status string `json:"status"`
	Tone   string `json:"tone"`
}
