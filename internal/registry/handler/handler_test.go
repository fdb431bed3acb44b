package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trialreg/internal/registry/handler/mocks"
	"trialreg/internal/registry/models"
	"trialreg/internal/registry/service"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/registry-mocks.go -package=mocks Service
type RegistryHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	now     time.Time
}

func TestRegistryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryHandlerSuite))
}

func (s *RegistryHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.now = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
}

func (s *RegistryHandlerSuite) serve(method, path string, body any) *httptest.ResponseRecorder {
	return testutil.Serve(s.router, testutil.JSONRequest(s.T(), method, path, body))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *RegistryHandlerSuite) view() *service.VolunteerView {
	bd := day(1990, 1, 15)
	age := 36
	return &service.VolunteerView{
		Volunteer: &models.Volunteer{
			ID:   id.NewVolunteerID(),
			Code: "ABC-2026-0001",
			Demographics: models.Demographics{
				FirstName:        "Ana",
				LastNamePaternal: "Bravo",
				LastNameMaternal: "Cruz",
				BirthDate:        &bd,
				Sex:              models.SexFemale,
				Phone:            "5512345678",
			},
			CreatedAt: s.now,
			UpdatedAt: s.now,
		},
		Status: models.StatusEligible,
		Age:    &age,
	}
}

func (s *RegistryHandlerSuite) participation(studyName string) service.ParticipationView {
	return service.ParticipationView{
		Participation: &models.Participation{
			ID:            id.NewParticipationID(),
			VolunteerID:   id.NewVolunteerID(),
			StudyID:       id.NewStudyID(),
			AdmissionDate: day(2026, 5, 4),
			Justification: "Cumple criterios",
			CreatedAt:     s.now,
		},
		StudyName: studyName,
	}
}

func (s *RegistryHandlerSuite) object(w *httptest.ResponseRecorder) map[string]any {
	return testutil.Decode[map[string]any](s.T(), w)
}

func (s *RegistryHandlerSuite) TestCreateVolunteer() {
	s.Run("maps the body and returns the derived view", func() {
		studyID := id.NewStudyID()
		s.service.EXPECT().CreateVolunteer(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req service.CreateVolunteerRequest) (*service.VolunteerView, error) {
				s.Equal("Ana", req.Demographics.FirstName)
				s.Equal(models.Sex("F"), req.Demographics.Sex)
				s.Require().NotNil(req.Demographics.BirthDate)
				s.Equal(day(1990, 1, 15), *req.Demographics.BirthDate)
				s.Require().NotNil(req.Initial)
				s.Equal(studyID, req.Initial.StudyID)
				s.Equal("Reclutado en campaña", req.Initial.Justification)
				s.Nil(req.Initial.AdmissionDate)
				return s.view(), nil
			})

		w := s.serve(http.MethodPost, "/api/volunteers", `{
			"first_name":"Ana","last_name_paternal":"Bravo","last_name_maternal":"Cruz",
			"birth_date":"1990-01-15","sex":"F","phone":"5512345678",
			"initial_enrollment":{"study_id":"`+studyID.String()+`","justification":"Reclutado en campaña"}
		}`)
		testutil.RequireStatus(s.T(), w, http.StatusCreated)
		resp := s.object(w)
		s.Equal("ABC-2026-0001", resp["code"])
		s.Equal("Ana Bravo Cruz", resp["full_name"])
		s.Equal("1990-01-15", resp["birth_date"])
		s.Equal(string(models.StatusEligible), resp["status"])
		s.Equal(true, resp["is_eligible"])
		s.EqualValues(36, resp["age"])
	})

	s.Run("accepts the flat initial enrollment fields", func() {
		studyID := id.NewStudyID()
		s.service.EXPECT().CreateVolunteer(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req service.CreateVolunteerRequest) (*service.VolunteerView, error) {
				s.Require().NotNil(req.Initial)
				s.Equal(studyID, req.Initial.StudyID)
				s.Require().NotNil(req.Initial.AdmissionDate)
				s.Equal(day(2026, 5, 6), *req.Initial.AdmissionDate)
				s.Equal("Alta desde formulario", req.Initial.Justification)
				return s.view(), nil
			})

		w := s.serve(http.MethodPost, "/api/volunteers", map[string]any{
			"first_name":             "Ana",
			"last_name_paternal":     "Bravo",
			"birth_date":             "1990-01-15",
			"initial_study_id":       studyID.String(),
			"initial_admission_date": "2026-05-06",
			"initial_justification":  "Alta desde formulario",
		})
		testutil.RequireStatus(s.T(), w, http.StatusCreated)
	})

	s.Run("no initial fields means no enrollment", func() {
		s.service.EXPECT().CreateVolunteer(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req service.CreateVolunteerRequest) (*service.VolunteerView, error) {
				s.Nil(req.Initial)
				return s.view(), nil
			})

		w := s.serve(http.MethodPost, "/api/volunteers", map[string]any{"first_name": "Ana"})
		testutil.RequireStatus(s.T(), w, http.StatusCreated)
	})

	s.Run("nested and flat initial enrollment together is a bad request", func() {
		studyID := id.NewStudyID().String()
		w := s.serve(http.MethodPost, "/api/volunteers", map[string]any{
			"first_name":         "Ana",
			"initial_study_id":   studyID,
			"initial_enrollment": map[string]string{"study_id": studyID, "justification": "x"},
		})
		testutil.AssertError(s.T(), w, http.StatusBadRequest, string(dErrors.CodeBadRequest), "")
	})

	s.Run("malformed date is a bad request", func() {
		w := s.serve(http.MethodPost, "/api/volunteers", `{"first_name":"Ana","birth_date":"15/01/1990"}`)
		testutil.AssertError(s.T(), w, http.StatusBadRequest, string(dErrors.CodeBadRequest), "")
	})

	s.Run("unknown initial study id is a validation error", func() {
		w := s.serve(http.MethodPost, "/api/volunteers",
			`{"first_name":"Ana","initial_enrollment":{"study_id":"nope","justification":"x"}}`)
		testutil.AssertError(s.T(), w, http.StatusBadRequest, string(dErrors.CodeValidation), "")
	})

	s.Run("duplicate CURP is a conflict", func() {
		s.service.EXPECT().CreateVolunteer(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "Ya existe un voluntario con la CURP indicada"))

		w := s.serve(http.MethodPost, "/api/volunteers", `{"first_name":"Ana","curp":"BACA900115MDFRRN09"}`)
		testutil.AssertError(s.T(), w, http.StatusConflict, string(dErrors.CodeConflict), "Ya existe un voluntario con la CURP indicada")
	})
}

func (s *RegistryHandlerSuite) TestListVolunteers() {
	s.Run("passes search and status filters", func() {
		st := models.StatusEligible
		s.service.EXPECT().ListVolunteers(gomock.Any(), service.ListVolunteersRequest{Search: "bravo", Status: &st}).
			Return([]*service.VolunteerView{s.view()}, nil)

		w := s.serve(http.MethodGet, "/api/volunteers?search=bravo&status=Apto", nil)
		testutil.RequireStatus(s.T(), w, http.StatusOK)
		out := testutil.Decode[[]map[string]any](s.T(), w)
		s.Require().Len(out, 1)
		s.NotContains(out[0], "participations")
	})

	s.Run("unknown status is a bad request", func() {
		w := s.serve(http.MethodGet, "/api/volunteers?status=Desconocido", nil)
		testutil.AssertError(s.T(), w, http.StatusBadRequest, string(dErrors.CodeBadRequest), `estado desconocido "Desconocido"`)
	})
}

func (s *RegistryHandlerSuite) TestGetVolunteer() {
	s.Run("bad id is not found", func() {
		w := s.serve(http.MethodGet, "/api/volunteers/not-a-uuid", nil)
		testutil.AssertError(s.T(), w, http.StatusNotFound, string(dErrors.CodeNotFound), "Voluntario no encontrado")
	})

	s.Run("includes the participation history", func() {
		view := s.view()
		view.Status = models.StatusInStudy
		view.Participations = []service.ParticipationView{s.participation("Estudio A")}
		s.service.EXPECT().GetVolunteer(gomock.Any(), view.Volunteer.ID).Return(view, nil)

		w := s.serve(http.MethodGet, "/api/volunteers/"+view.Volunteer.ID.String(), nil)
		testutil.RequireStatus(s.T(), w, http.StatusOK)
		resp := s.object(w)
		history := resp["participations"].([]any)
		s.Require().Len(history, 1)
		s.Equal("Estudio A", history[0].(map[string]any)["study_name"])
		s.Equal(true, history[0].(map[string]any)["is_active"])
	})
}

func (s *RegistryHandlerSuite) TestUpdateVolunteer() {
	volunteerID := id.NewVolunteerID()

	s.Run("null birth date clears it", func() {
		s.service.EXPECT().UpdateVolunteer(gomock.Any(), volunteerID, gomock.Any(), "Corrección").DoAndReturn(
			func(_ any, _ id.VolunteerID, patch models.DemographicsPatch, _ string) (*service.VolunteerView, error) {
				s.True(patch.ClearBirthDate)
				s.Nil(patch.BirthDate)
				s.Require().NotNil(patch.Phone)
				s.Equal("5599999999", *patch.Phone)
				s.Nil(patch.FirstName)
				return s.view(), nil
			})

		w := s.serve(http.MethodPatch, "/api/volunteers/"+volunteerID.String(),
			`{"birth_date":null,"phone":"5599999999","justification":"Corrección"}`)
		testutil.RequireStatus(s.T(), w, http.StatusOK)
	})

	s.Run("absent birth date is left alone", func() {
		s.service.EXPECT().UpdateVolunteer(gomock.Any(), volunteerID, gomock.Any(), "Corrección").DoAndReturn(
			func(_ any, _ id.VolunteerID, patch models.DemographicsPatch, _ string) (*service.VolunteerView, error) {
				s.False(patch.ClearBirthDate)
				s.Nil(patch.BirthDate)
				return s.view(), nil
			})

		w := s.serve(http.MethodPatch, "/api/volunteers/"+volunteerID.String(),
			`{"first_name":"Anita","justification":"Corrección"}`)
		testutil.RequireStatus(s.T(), w, http.StatusOK)
	})
}

func (s *RegistryHandlerSuite) TestSetDictum() {
	volunteerID := id.NewVolunteerID()
	s.service.EXPECT().SetManualDictum(gomock.Any(), service.DictumRequest{
		VolunteerID:   volunteerID,
		Status:        "rejected",
		Reason:        "Antecedentes",
		Justification: "Revisión médica",
	}).Return(s.view(), nil)

	w := s.serve(http.MethodPost, "/api/volunteers/"+volunteerID.String()+"/dictum",
		`{"status":"rejected","reason":"Antecedentes","justification":"Revisión médica"}`)
	testutil.RequireStatus(s.T(), w, http.StatusOK)
}

func (s *RegistryHandlerSuite) TestEnroll() {
	volunteerID := id.NewVolunteerID()
	studyID := id.NewStudyID()

	s.Run("creates the participation", func() {
		p := s.participation("Estudio A")
		admission := day(2026, 5, 6)
		s.service.EXPECT().Enroll(gomock.Any(), service.EnrollRequest{
			VolunteerID:   volunteerID,
			StudyID:       studyID,
			Justification: "Cumple criterios",
			AdmissionDate: &admission,
		}).Return(&service.EnrollResult{Participation: p, Participations: []service.ParticipationView{p}}, nil)

		w := s.serve(http.MethodPost, "/api/volunteers/"+volunteerID.String()+"/participations",
			`{"study_id":"`+studyID.String()+`","admission_date":"2026-05-06","justification":"Cumple criterios"}`)
		testutil.RequireStatus(s.T(), w, http.StatusCreated)
		resp := s.object(w)
		s.Equal("Estudio A", resp["participation"].(map[string]any)["study_name"])
		s.Len(resp["participations"], 1)
	})

	s.Run("washout rejection is a conflict", func() {
		s.service.EXPECT().Enroll(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "El voluntario está en periodo de descanso"))

		w := s.serve(http.MethodPost, "/api/volunteers/"+volunteerID.String()+"/participations",
			`{"study_id":"`+studyID.String()+`","justification":"Cumple criterios"}`)
		testutil.AssertError(s.T(), w, http.StatusConflict, string(dErrors.CodeConflict), "El voluntario está en periodo de descanso")
	})
}

func (s *RegistryHandlerSuite) TestCloseParticipation() {
	p := s.participation("Estudio A")
	payment := day(2026, 5, 10)

	s.service.EXPECT().CloseParticipation(gomock.Any(), service.CloseRequest{
		ParticipationID: p.ID,
		PaymentDate:     payment,
		Justification:   "Pago realizado",
		Trigger:         "manual",
	}).DoAndReturn(func(_ any, _ service.CloseRequest) (*service.ParticipationView, error) {
		p.PaymentDate = &payment
		return &p, nil
	})

	w := s.serve(http.MethodPost, "/api/participations/"+p.ID.String()+"/close",
		`{"payment_date":"2026-05-10","justification":"Pago realizado"}`)
	testutil.RequireStatus(s.T(), w, http.StatusOK)
	resp := s.object(w)
	s.Equal("2026-05-10", resp["payment_date"])
	s.Equal(false, resp["is_active"])
}

func (s *RegistryHandlerSuite) TestStudies() {
	study := &models.Study{ID: id.NewStudyID(), Name: "Estudio A", IsActive: true, CreatedAt: s.now, UpdatedAt: s.now}

	s.Run("create defaults to active", func() {
		s.service.EXPECT().CreateStudy(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, f models.StudyFields) (*models.Study, error) {
				s.True(f.IsActive)
				s.Equal(day(2026, 6, 1), *f.AdmissionDate)
				return study, nil
			})

		w := s.serve(http.MethodPost, "/api/studies", `{"name":"Estudio A","admission_date":"2026-06-01"}`)
		testutil.RequireStatus(s.T(), w, http.StatusCreated)
		s.Equal("Estudio A", s.object(w)["name"])
	})

	s.Run("list honours the active filter", func() {
		s.service.EXPECT().ListStudies(gomock.Any(), true).Return([]*models.Study{study}, nil)

		w := s.serve(http.MethodGet, "/api/studies?active=true", nil)
		testutil.RequireStatus(s.T(), w, http.StatusOK)
	})

	s.Run("patch with null payment date clears it", func() {
		s.service.EXPECT().UpdateStudy(gomock.Any(), study.ID, gomock.Any(), "Reprogramado").DoAndReturn(
			func(_ any, _ id.StudyID, patch models.StudyPatch, _ string) (*models.Study, error) {
				s.True(patch.ClearPaymentDate)
				s.False(patch.ClearAdmissionDate)
				return study, nil
			})

		w := s.serve(http.MethodPatch, "/api/studies/"+study.ID.String(),
			`{"payment_date":null,"justification":"Reprogramado"}`)
		testutil.RequireStatus(s.T(), w, http.StatusOK)
	})

	s.Run("missing study is not found", func() {
		s.service.EXPECT().GetStudy(gomock.Any(), study.ID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Estudio no encontrado"))

		w := s.serve(http.MethodGet, "/api/studies/"+study.ID.String(), nil)
		testutil.AssertError(s.T(), w, http.StatusNotFound, string(dErrors.CodeNotFound), "Estudio no encontrado")
	})
}

func (s *RegistryHandlerSuite) TestStatuses() {
	s.service.EXPECT().StatusCatalog().Return([]service.StatusOption{
		{Status: models.StatusEligible, Tone: models.StatusEligible.Tone()},
	})

	w := s.serve(http.MethodGet, "/api/statuses", nil)
	testutil.RequireStatus(s.T(), w, http.StatusOK)
	out := testutil.Decode[[]map[string]string](s.T(), w)
	s.Equal(string(models.StatusEligible), out[0]["status"])
}
