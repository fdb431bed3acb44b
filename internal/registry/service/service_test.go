package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trialreg/internal/audit"
	auditmemory "trialreg/internal/audit/store/memory"
	"trialreg/internal/registry/eligibility"
	"trialreg/internal/registry/models"
	"trialreg/internal/registry/service"
	"trialreg/internal/registry/store/memory"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	audit   *auditmemory.Store
	service *service.Service
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.audit = auditmemory.New()
	s.service = service.New(s.store, memory.NewTx(s.store), audit.NewRecorder(s.audit))
	s.now = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
}

// at returns an admin request context pinned to t.
func (s *ServiceSuite) at(t time.Time) context.Context {
	ctx := requestcontext.WithSession(context.Background(), requestcontext.Session{
		UserID: id.NewUserID(), Username: "admin", FullName: "Admin", IsStaff: true,
	})
	ctx = requestcontext.WithRequestID(ctx, "req-test")
	ctx = requestcontext.WithClientMetadata(ctx, "127.0.0.1", "")
	return requestcontext.WithTime(ctx, t)
}

func (s *ServiceSuite) ctx() context.Context {
	return s.at(s.now)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (s *ServiceSuite) demographics(curp string) models.Demographics {
	return models.Demographics{
		FirstName:        "Ana",
		LastNamePaternal: "Bravo",
		LastNameMaternal: "Cruz",
		BirthDate:        date(1990, time.January, 15),
		Sex:              models.SexFemale,
		Phone:            "5551234567",
		CURP:             curp,
	}
}

func (s *ServiceSuite) createVolunteer() *service.VolunteerView {
	view, err := s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{Demographics: s.demographics("")})
	s.Require().NoError(err)
	return view
}

func (s *ServiceSuite) createStudy(name string, active bool) *models.Study {
	study, err := s.service.CreateStudy(s.ctx(), models.StudyFields{Name: name, IsActive: active})
	s.Require().NoError(err)
	return study
}

func (s *ServiceSuite) auditEntries(model audit.Model) []*audit.Entry {
	entries, err := s.audit.List(context.Background(), audit.ListFilter{Model: model})
	s.Require().NoError(err)
	return entries
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) {
	s.T().Helper()
	s.Require().Error(err)
	s.Require().True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *ServiceSuite) TestCreateVolunteer() {
	s.Run("assigns a yearly code and audits the snapshot", func() {
		view := s.createVolunteer()
		s.Equal("ABC-2026-0001", view.Volunteer.Code)
		s.Equal(models.StatusWaitingApproval, view.Status)
		s.Require().NotNil(view.Age)
		s.Equal(36, *view.Age)

		entries := s.auditEntries(audit.ModelVolunteer)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionCreate, entries[0].Action)
		s.Equal("ABC-2026-0001", entries[0].RecordID)
		s.Equal("admin", entries[0].Actor.Username)
		s.Equal("Ana", entries[0].Changes.Get(audit.FieldFirstName).Value())
	})

	s.Run("second registration gets the next number", func() {
		view := s.createVolunteer()
		s.Equal("ABC-2026-0002", view.Volunteer.Code)
	})
}

func (s *ServiceSuite) TestCreateVolunteerValidation() {
	d := s.demographics("")
	d.Phone = "  "
	_, err := s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{Demographics: d})
	s.requireCode(err, dErrors.CodeValidation)
	s.Empty(s.auditEntries(""))

	d = s.demographics("SHORT")
	_, err = s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{Demographics: d})
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestCreateVolunteerDuplicateCURP() {
	_, err := s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{Demographics: s.demographics("bacA900115mdfrrn09")})
	s.Require().NoError(err)

	_, err = s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{Demographics: s.demographics("BACA900115MDFRRN09")})
	s.requireCode(err, dErrors.CodeConflict)
	s.Len(s.auditEntries(audit.ModelVolunteer), 1)
}

func (s *ServiceSuite) TestRegistrationWithEnrollmentIsAtomic() {
	closed := s.createStudy("Cerrado", false)
	before := len(s.auditEntries(""))

	_, err := s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{
		Demographics: s.demographics("BACA900115MDFRRN09"),
		Initial:      &service.InitialEnrollment{StudyID: closed.ID, Justification: "ingreso inicial"},
	})
	s.requireCode(err, dErrors.CodeConflict)

	vs, err := s.service.ListVolunteers(s.ctx(), service.ListVolunteersRequest{})
	s.Require().NoError(err)
	s.Empty(vs)
	s.Len(s.auditEntries(""), before)

	s.Run("the same data registers once the study is usable", func() {
		open := s.createStudy("Abierto", true)
		view, err := s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{
			Demographics: s.demographics("BACA900115MDFRRN09"),
			Initial:      &service.InitialEnrollment{StudyID: open.ID, Justification: "ingreso inicial"},
		})
		s.Require().NoError(err)
		s.Equal(models.StatusInStudy, view.Status)
		s.Require().Len(view.Participations, 1)
		s.Equal("Abierto", view.Participations[0].StudyName)
		s.Len(s.auditEntries(audit.ModelParticipation), 1)
	})
}

func (s *ServiceSuite) TestRegistrationRequiresEnrollmentJustification() {
	open := s.createStudy("Abierto", true)
	_, err := s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{
		Demographics: s.demographics(""),
		Initial:      &service.InitialEnrollment{StudyID: open.ID, Justification: " "},
	})
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *ServiceSuite) TestEnroll() {
	v := s.createVolunteer()
	a := s.createStudy("Estudio A", true)
	b := s.createStudy("Estudio B", true)

	s.Run("requires justification", func() {
		_, err := s.service.Enroll(s.ctx(), service.EnrollRequest{VolunteerID: v.Volunteer.ID, StudyID: a.ID})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("unknown study is not found", func() {
		_, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
			VolunteerID: v.Volunteer.ID, StudyID: id.NewStudyID(), Justification: "ingreso",
		})
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("creates an active participation", func() {
		res, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
			VolunteerID: v.Volunteer.ID, StudyID: a.ID, Justification: "ingreso",
		})
		s.Require().NoError(err)
		s.True(res.Participation.IsActive())
		s.Equal("Estudio A", res.Participation.StudyName)
		s.Len(res.Participations, 1)

		entries := s.auditEntries(audit.ModelParticipation)
		s.Require().Len(entries, 1)
		s.Equal("ABC-2026-0001 -> Estudio Estudio A", entries[0].RecordID)
		s.Equal(true, entries[0].Changes.Get(audit.FieldIsActive).Value())
	})

	s.Run("second active participation is rejected", func() {
		_, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
			VolunteerID: v.Volunteer.ID, StudyID: b.ID, Justification: "ingreso",
		})
		s.requireCode(err, dErrors.CodeConflict)
		s.Contains(dErrors.Message(err), "Estudio A")
	})

	s.Run("same study twice is rejected", func() {
		_, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
			VolunteerID: v.Volunteer.ID, StudyID: a.ID, Justification: "ingreso",
		})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Len(s.auditEntries(audit.ModelParticipation), 1)
}

func (s *ServiceSuite) TestEnrollInactiveStudy() {
	v := s.createVolunteer()
	closed := s.createStudy("Cerrado", false)

	_, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
		VolunteerID: v.Volunteer.ID, StudyID: closed.ID, Justification: "ingreso",
	})
	s.requireCode(err, dErrors.CodeConflict)
}

func (s *ServiceSuite) TestWashout() {
	v := s.createVolunteer()
	a := s.createStudy("Estudio A", true)
	b := s.createStudy("Estudio B", true)

	res, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
		VolunteerID: v.Volunteer.ID, StudyID: a.ID, Justification: "ingreso",
	})
	s.Require().NoError(err)

	_, err = s.service.CloseParticipation(s.ctx(), service.CloseRequest{
		ParticipationID: res.Participation.ID,
		PaymentDate:     *date(2026, time.May, 10),
		Justification:   "pago realizado",
	})
	s.Require().NoError(err)

	s.Run("resting volunteer cannot enroll", func() {
		ctx := s.at(time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC))
		view, err := s.service.GetVolunteer(ctx, v.Volunteer.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusResting, view.Status)
		s.Require().NotNil(view.RestingUntil)
		s.Equal(*date(2026, time.August, 8), *view.RestingUntil)

		_, err = s.service.Enroll(ctx, service.EnrollRequest{
			VolunteerID: v.Volunteer.ID, StudyID: b.ID, Justification: "ingreso",
		})
		s.requireCode(err, dErrors.CodeConflict)
		s.Contains(dErrors.Message(err), "2026-05-10")
		s.Contains(dErrors.Message(err), "2026-08-08")
		s.Contains(dErrors.Message(err), "(68 días restantes)")
	})

	s.Run("enrollment succeeds once the washout ends", func() {
		ctx := s.at(time.Date(2026, time.August, 8, 9, 0, 0, 0, time.UTC))
		_, err := s.service.Enroll(ctx, service.EnrollRequest{
			VolunteerID: v.Volunteer.ID, StudyID: b.ID, Justification: "ingreso",
		})
		s.Require().NoError(err)
	})
}

// The washout blocks enrollment even when the age rule decides the status.
func (s *ServiceSuite) TestWashoutAppliesOutsideTheAgeBand() {
	d := s.demographics("")
	d.BirthDate = date(1960, time.January, 1)
	v, err := s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{Demographics: d})
	s.Require().NoError(err)
	a := s.createStudy("Estudio A", true)
	b := s.createStudy("Estudio B", true)

	res, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
		VolunteerID: v.Volunteer.ID, StudyID: a.ID, Justification: "ingreso",
	})
	s.Require().NoError(err)
	_, err = s.service.CloseParticipation(s.ctx(), service.CloseRequest{
		ParticipationID: res.Participation.ID,
		PaymentDate:     *date(2026, time.May, 10),
		Justification:   "pago realizado",
	})
	s.Require().NoError(err)

	ctx := s.at(time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC))
	view, err := s.service.GetVolunteer(ctx, v.Volunteer.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAgeIneligible, view.Status)
	s.Require().NotNil(view.RestingUntil)

	_, err = s.service.Enroll(ctx, service.EnrollRequest{
		VolunteerID: v.Volunteer.ID, StudyID: b.ID, Justification: "ingreso",
	})
	s.requireCode(err, dErrors.CodeConflict)
	s.Contains(dErrors.Message(err), "2026-08-08")
}

func (s *ServiceSuite) TestConcurrentEnrollmentsAdmitExactlyOne() {
	v := s.createVolunteer()
	const workers = 8
	studies := make([]*models.Study, workers)
	for i := range studies {
		studies[i] = s.createStudy(string(rune('A'+i))+" concurrente", true)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := range workers {
		wg.Add(1)
		go func(study *models.Study) {
			defer wg.Done()
			_, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
				VolunteerID: v.Volunteer.ID, StudyID: study.ID, Justification: "ingreso",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts++
			}
		}(studies[i])
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(workers-1, conflicts)
	s.Len(s.auditEntries(audit.ModelParticipation), 1)

	view, err := s.service.GetVolunteer(s.ctx(), v.Volunteer.ID)
	s.Require().NoError(err)
	s.Len(view.Participations, 1)
}

func (s *ServiceSuite) TestCloseParticipation() {
	v := s.createVolunteer()
	a := s.createStudy("Estudio A", true)
	res, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
		VolunteerID: v.Volunteer.ID, StudyID: a.ID, Justification: "ingreso",
		AdmissionDate: date(2026, time.May, 4),
	})
	s.Require().NoError(err)

	s.Run("requires justification", func() {
		_, err := s.service.CloseParticipation(s.ctx(), service.CloseRequest{
			ParticipationID: res.Participation.ID, PaymentDate: *date(2026, time.May, 10),
		})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("payment must follow admission", func() {
		_, err := s.service.CloseParticipation(s.ctx(), service.CloseRequest{
			ParticipationID: res.Participation.ID, PaymentDate: *date(2026, time.May, 4), Justification: "pago",
		})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("closes and audits the transition", func() {
		pv, err := s.service.CloseParticipation(s.ctx(), service.CloseRequest{
			ParticipationID: res.Participation.ID, PaymentDate: *date(2026, time.May, 10), Justification: "pago",
		})
		s.Require().NoError(err)
		s.False(pv.IsActive())

		entries := s.auditEntries(audit.ModelParticipation)
		s.Require().Len(entries, 2)
		latest := entries[0]
		s.Equal(audit.ActionUpdate, latest.Action)
		s.Equal(audit.Change{Kind: audit.Modified, From: nil, To: "2026-05-10"}, latest.Changes.Get(audit.FieldPaymentDate))
		s.Equal(audit.Change{Kind: audit.Modified, From: true, To: false}, latest.Changes.Get(audit.FieldIsActive))
	})

	s.Run("closing twice is rejected", func() {
		_, err := s.service.CloseParticipation(s.ctx(), service.CloseRequest{
			ParticipationID: res.Participation.ID, PaymentDate: *date(2026, time.May, 11), Justification: "pago",
		})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("unknown participation is not found", func() {
		_, err := s.service.CloseParticipation(s.ctx(), service.CloseRequest{
			ParticipationID: id.NewParticipationID(), PaymentDate: *date(2026, time.May, 11), Justification: "pago",
		})
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestFutureStudyIsAssigned() {
	v := s.createVolunteer()
	study, err := s.service.CreateStudy(s.ctx(), models.StudyFields{
		Name: "Futuro", IsActive: true, AdmissionDate: date(2026, time.June, 1),
	})
	s.Require().NoError(err)

	res, err := s.service.Enroll(s.ctx(), service.EnrollRequest{
		VolunteerID: v.Volunteer.ID, StudyID: study.ID, Justification: "ingreso",
	})
	s.Require().NoError(err)
	s.Equal(*date(2026, time.June, 1), res.Participation.AdmissionDate)

	view, err := s.service.GetVolunteer(s.ctx(), v.Volunteer.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusStudyAssigned, view.Status)
}

func (s *ServiceSuite) TestSetManualDictum() {
	v := s.createVolunteer()

	s.Run("rejected needs a reason", func() {
		_, err := s.service.SetManualDictum(s.ctx(), service.DictumRequest{
			VolunteerID: v.Volunteer.ID, Status: "rejected", Justification: "revisión médica",
		})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("unknown dictum is invalid", func() {
		_, err := s.service.SetManualDictum(s.ctx(), service.DictumRequest{
			VolunteerID: v.Volunteer.ID, Status: "maybe", Reason: "x", Justification: "x",
		})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("rejection is reflected in the derived status", func() {
		view, err := s.service.SetManualDictum(s.ctx(), service.DictumRequest{
			VolunteerID: v.Volunteer.ID, Status: "rejected", Reason: "hipertensión", Justification: "revisión médica",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, view.Status)

		entries := s.auditEntries(audit.ModelVolunteer)
		s.Require().Len(entries, 2)
		s.Equal("revisión médica", entries[0].Justification)
		s.Equal("rejected", entries[0].Changes.Get(audit.FieldManualStatus).Value())
		s.Equal("hipertensión", entries[0].Changes.Get(audit.FieldStatusReason).Value())
	})

	s.Run("an active participation outranks the dictum", func() {
		study := s.createStudy("Estudio A", true)
		_, err := s.service.SetManualDictum(s.ctx(), service.DictumRequest{
			VolunteerID: v.Volunteer.ID, Status: "eligible", Reason: "aprobado", Justification: "revisión",
		})
		s.Require().NoError(err)
		_, err = s.service.Enroll(s.ctx(), service.EnrollRequest{
			VolunteerID: v.Volunteer.ID, StudyID: study.ID, Justification: "ingreso",
		})
		s.Require().NoError(err)

		view, err := s.service.GetVolunteer(s.ctx(), v.Volunteer.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInStudy, view.Status)
	})
}

func (s *ServiceSuite) TestAgeBandComesFirst() {
	d := s.demographics("")
	d.BirthDate = date(1960, time.January, 1)
	view, err := s.service.CreateVolunteer(s.ctx(), service.CreateVolunteerRequest{Demographics: d})
	s.Require().NoError(err)
	s.Equal(models.StatusAgeIneligible, view.Status)

	s.Run("a wider policy accepts the same volunteer", func() {
		svc := service.New(s.store, memory.NewTx(s.store), audit.NewRecorder(s.audit),
			service.WithEngine(eligibility.New(eligibility.Policy{AgeMin: 18, AgeMax: 70, WashoutDays: 90})))
		got, err := svc.GetVolunteer(s.ctx(), view.Volunteer.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusWaitingApproval, got.Status)
	})
}

func (s *ServiceSuite) TestUpdateVolunteer() {
	v := s.createVolunteer()
	phone := "5550000000"

	s.Run("requires justification", func() {
		_, err := s.service.UpdateVolunteer(s.ctx(), v.Volunteer.ID, models.DemographicsPatch{Phone: &phone}, "")
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("audits only changed fields", func() {
		same := "Ana"
		view, err := s.service.UpdateVolunteer(s.ctx(), v.Volunteer.ID,
			models.DemographicsPatch{Phone: &phone, FirstName: &same}, "corrección")
		s.Require().NoError(err)
		s.Equal(phone, view.Volunteer.Phone)
		s.Equal(v.Volunteer.Code, view.Volunteer.Code)

		entries := s.auditEntries(audit.ModelVolunteer)
		s.Require().Len(entries, 2)
		s.Equal([]audit.Field{audit.FieldPhone}, entries[0].Changes.Fields())
	})

	s.Run("a patch that changes nothing writes nothing", func() {
		_, err := s.service.UpdateVolunteer(s.ctx(), v.Volunteer.ID, models.DemographicsPatch{Phone: &phone}, "corrección")
		s.Require().NoError(err)
		s.Len(s.auditEntries(audit.ModelVolunteer), 2)
	})

	s.Run("missing volunteer is not found", func() {
		_, err := s.service.UpdateVolunteer(s.ctx(), id.NewVolunteerID(), models.DemographicsPatch{Phone: &phone}, "x")
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestStudies() {
	s.Run("payment must follow admission on create", func() {
		_, err := s.service.CreateStudy(s.ctx(), models.StudyFields{
			Name: "Fechas", AdmissionDate: date(2026, time.June, 10), PaymentDate: date(2026, time.June, 10),
		})
		s.requireCode(err, dErrors.CodeValidation)
	})

	study := s.createStudy("Estudio A", true)

	s.Run("payment must follow admission on update", func() {
		_, err := s.service.UpdateStudy(s.ctx(), study.ID, models.StudyPatch{
			AdmissionDate: date(2026, time.June, 10), PaymentDate: date(2026, time.June, 1),
		}, "reprogramación")
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("names are unique ignoring case", func() {
		_, err := s.service.CreateStudy(s.ctx(), models.StudyFields{Name: "estudio a"})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("update audits the diff", func() {
		inactive := false
		updated, err := s.service.UpdateStudy(s.ctx(), study.ID, models.StudyPatch{IsActive: &inactive}, "fin de reclutamiento")
		s.Require().NoError(err)
		s.False(updated.IsActive)

		entries := s.auditEntries(audit.ModelStudy)
		s.Require().Len(entries, 2)
		s.Equal(audit.Change{Kind: audit.Modified, From: true, To: false}, entries[0].Changes.Get(audit.FieldIsActive))
	})

	s.Run("active listing excludes closed studies", func() {
		s.createStudy("Estudio B", true)
		studies, err := s.service.ListStudies(s.ctx(), true)
		s.Require().NoError(err)
		s.Require().Len(studies, 1)
		s.Equal("Estudio B", studies[0].Name)
	})
}

func (s *ServiceSuite) TestListVolunteersByStatus() {
	first := s.createVolunteer()
	s.createVolunteer()
	_, err := s.service.SetManualDictum(s.ctx(), service.DictumRequest{
		VolunteerID: first.Volunteer.ID, Status: "eligible", Reason: "aprobado", Justification: "revisión",
	})
	s.Require().NoError(err)

	eligible := models.StatusEligible
	vs, err := s.service.ListVolunteers(s.ctx(), service.ListVolunteersRequest{Status: &eligible})
	s.Require().NoError(err)
	s.Require().Len(vs, 1)
	s.Equal(first.Volunteer.ID, vs[0].Volunteer.ID)
	s.True(vs[0].IsEligible())

	vs, err = s.service.ListVolunteers(s.ctx(), service.ListVolunteersRequest{Search: "abc-2026"})
	s.Require().NoError(err)
	s.Len(vs, 2)
}

func (s *ServiceSuite) TestMutationsRequireASession() {
	_, err := s.service.CreateVolunteer(requestcontext.WithTime(context.Background(), s.now),
		service.CreateVolunteerRequest{Demographics: s.demographics("")})
	s.Require().Error(err)

	vs, err := s.service.ListVolunteers(s.ctx(), service.ListVolunteersRequest{})
	s.Require().NoError(err)
	s.Empty(vs)
}

func (s *ServiceSuite) TestStatusCatalog() {
	catalog := s.service.StatusCatalog()
	s.Require().Len(catalog, len(models.AllStatuses))
	s.Equal(models.StatusAgeIneligible, catalog[0].Status)
	s.Equal(models.ToneSuccess, catalog[5].Tone)
}
