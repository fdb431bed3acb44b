package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
)

type ModelsSuite struct {
	suite.Suite
	now time.Time
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func (s *ModelsSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func validDemographics() Demographics {
	return Demographics{
		FirstName:        " ana ",
		LastNamePaternal: "Bravo",
		LastNameMaternal: "Cruz",
		Sex:              "f",
		Phone:            "5512345678",
		CURP:             "brca900101mdfrrn09",
	}
}

func (s *ModelsSuite) TestNewVolunteer() {
	s.Run("normalizes and keeps code", func() {
		v, err := NewVolunteer(id.NewVolunteerID(), "ABC-2026-0001", validDemographics(), s.now)
		s.Require().NoError(err)
		s.Equal("ana", v.FirstName)
		s.Equal("BRCA900101MDFRRN09", v.CURP)
		s.Equal(SexFemale, v.Sex)
		s.Equal(ManualStatusUnset, v.ManualStatus)
		s.Equal("ana Bravo Cruz", v.FullName())
	})

	s.Run("rejects CURP that is not 18 characters", func() {
		d := validDemographics()
		d.CURP = "SHORT"
		_, err := NewVolunteer(id.NewVolunteerID(), "ABC-2026-0001", d, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Contains(dErrors.Message(err), "18")
	})

	s.Run("allows empty CURP", func() {
		d := validDemographics()
		d.CURP = ""
		_, err := NewVolunteer(id.NewVolunteerID(), "ABC-2026-0001", d, s.now)
		s.Require().NoError(err)
	})

	s.Run("rejects missing required names", func() {
		d := validDemographics()
		d.LastNameMaternal = "  "
		_, err := NewVolunteer(id.NewVolunteerID(), "ABC-2026-0001", d, s.now)
		s.Require().Error(err)
	})

	s.Run("rejects future birth date", func() {
		d := validDemographics()
		d.BirthDate = date(2030, 1, 1)
		_, err := NewVolunteer(id.NewVolunteerID(), "ABC-2026-0001", d, s.now)
		s.Require().Error(err)
	})

	s.Run("rejects unknown sex", func() {
		d := validDemographics()
		d.Sex = "X"
		_, err := NewVolunteer(id.NewVolunteerID(), "ABC-2026-0001", d, s.now)
		s.Require().Error(err)
	})
}

func (s *ModelsSuite) TestCodes() {
	d := validDemographics()
	d.Normalize()
	s.Equal("ABC", Initials(d))
	s.Equal("ABC-2026-0007", FormatCode(Initials(d), 2026, 7))

	d.FirstName = "Ángel"
	s.Equal("ÁBC", Initials(d))
}

func (s *ModelsSuite) TestDictum() {
	v, err := NewVolunteer(id.NewVolunteerID(), "ABC-2026-0001", validDemographics(), s.now)
	s.Require().NoError(err)

	s.Run("reason required for rejected", func() {
		err := v.CanSetDictum(ManualStatusRejected, " ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("reason optional for waiting approval", func() {
		s.NoError(v.CanSetDictum(ManualStatusWaitingApproval, ""))
	})

	s.Run("parse rejects unknown dictum", func() {
		_, err := ParseManualStatus("maybe")
		s.Require().Error(err)
		_, err = ParseManualStatus("")
		s.Require().Error(err)
	})
}

func (s *ModelsSuite) TestStudyDates() {
	s.Run("payment must follow admission", func() {
		_, err := NewStudy(id.NewStudyID(), StudyFields{
			Name:          "Estudio A",
			AdmissionDate: date(2026, 2, 1),
			PaymentDate:   date(2026, 1, 1),
		}, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("same day is rejected", func() {
		_, err := NewStudy(id.NewStudyID(), StudyFields{
			Name:          "Estudio A",
			AdmissionDate: date(2026, 2, 1),
			PaymentDate:   date(2026, 2, 1),
		}, s.now)
		s.Require().Error(err)
	})

	s.Run("patch revalidates", func() {
		st, err := NewStudy(id.NewStudyID(), StudyFields{
			Name:          "Estudio A",
			AdmissionDate: date(2026, 2, 1),
		}, s.now)
		s.Require().NoError(err)

		_, err = StudyPatch{PaymentDate: date(2026, 1, 1)}.Apply(st.Fields())
		s.Require().Error(err)

		f, err := StudyPatch{PaymentDate: date(2026, 3, 1)}.Apply(st.Fields())
		s.Require().NoError(err)
		s.Equal("2026-03-01", FormatDate(f.PaymentDate))
	})

	s.Run("name is required and bounded", func() {
		_, err := NewStudy(id.NewStudyID(), StudyFields{Name: " "}, s.now)
		s.Require().Error(err)
		_, err = NewStudy(id.NewStudyID(), StudyFields{Name: strings.Repeat("x", 201)}, s.now)
		s.Require().Error(err)
	})
}

func (s *ModelsSuite) TestParticipationClose() {
	p, err := NewParticipation(id.NewParticipationID(), id.NewVolunteerID(), id.NewStudyID(),
		*date(2026, 2, 1), "ingreso", s.now)
	s.Require().NoError(err)
	s.True(p.IsActive())

	s.Require().Error(p.CanClose(*date(2026, 2, 1)))
	s.Require().NoError(p.CanClose(*date(2026, 2, 2)))

	p.ApplyClose(*date(2026, 2, 2), s.now)
	s.False(p.IsActive())
	s.Require().Error(p.CanClose(*date(2026, 3, 1)))
}

func (s *ModelsSuite) TestStatusCatalog() {
	st, ok := ParseStatus("Apto")
	s.True(ok)
	s.Equal(ToneSuccess, st.Tone())
	_, ok = ParseStatus("Desconocido")
	s.False(ok)
	s.Equal(StatusWaitingApproval, DictumStatus(ManualStatusUnset))
}
