// Package handler exposes the registry over JSON HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/service"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/platform/httputil"
	"trialreg/pkg/requestcontext"
)

// Service is the registry surface the handler needs.
type Service interface {
	CreateVolunteer(ctx context.Context, req service.CreateVolunteerRequest) (*service.VolunteerView, error)
	UpdateVolunteer(ctx context.Context, volunteerID id.VolunteerID, patch models.DemographicsPatch, justification string) (*service.VolunteerView, error)
	SetManualDictum(ctx context.Context, req service.DictumRequest) (*service.VolunteerView, error)
	GetVolunteer(ctx context.Context, volunteerID id.VolunteerID) (*service.VolunteerView, error)
	ListVolunteers(ctx context.Context, req service.ListVolunteersRequest) ([]*service.VolunteerView, error)

	Enroll(ctx context.Context, req service.EnrollRequest) (*service.EnrollResult, error)
	CloseParticipation(ctx context.Context, req service.CloseRequest) (*service.ParticipationView, error)

	CreateStudy(ctx context.Context, fields models.StudyFields) (*models.Study, error)
	UpdateStudy(ctx context.Context, studyID id.StudyID, patch models.StudyPatch, justification string) (*models.Study, error)
	GetStudy(ctx context.Context, studyID id.StudyID) (*models.Study, error)
	ListStudies(ctx context.Context, activeOnly bool) ([]*models.Study, error)

	StatusCatalog() []service.StatusOption
}

// Handler serves the volunteer, study and participation endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the registry routes. Callers must wrap r with auth and
// the read-only-unless-staff middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/volunteers", func(r chi.Router) {
		r.Get("/", h.handleListVolunteers)
		r.Post("/", h.handleCreateVolunteer)
		r.Get("/{id}", h.handleGetVolunteer)
		r.Patch("/{id}", h.handleUpdateVolunteer)
		r.Post("/{id}/dictum", h.handleSetDictum)
		r.Post("/{id}/participations", h.handleEnroll)
	})
	r.Post("/api/participations/{id}/close", h.handleCloseParticipation)
	r.Route("/api/studies", func(r chi.Router) {
		r.Get("/", h.handleListStudies)
		r.Post("/", h.handleCreateStudy)
		r.Get("/{id}", h.handleGetStudy)
		r.Patch("/{id}", h.handleUpdateStudy)
	})
	r.Get("/api/statuses", h.handleStatuses)
}

func (h *Handler) handleStatuses(w http.ResponseWriter, _ *http.Request) {
	catalog := h.service.StatusCatalog()
	out := make([]statusResponse, 0, len(catalog))
	for _, opt := range catalog {
		out = append(out, statusResponse{Status: string(opt.Status), Tone: string(opt.Tone)})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// fail writes err and logs it when it is not a caller mistake.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.InfoContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func pathVolunteerID(r *http.Request) (id.VolunteerID, error) {
	v, err := id.ParseVolunteerID(chi.URLParam(r, "id"))
	if err != nil {
		return v, dErrors.New(dErrors.CodeNotFound, "Voluntario no encontrado")
	}
	return v, nil
}

func pathStudyID(r *http.Request) (id.StudyID, error) {
	s, err := id.ParseStudyID(chi.URLParam(r, "id"))
	if err != nil {
		return s, dErrors.New(dErrors.CodeNotFound, "Estudio no encontrado")
	}
	return s, nil
}

func parseStudyID(raw string) (id.StudyID, error) {
	s, err := id.ParseStudyID(raw)
	if err != nil {
		return s, dErrors.New(dErrors.CodeValidation, "study_id no es un identificador válido")
	}
	return s, nil
}
