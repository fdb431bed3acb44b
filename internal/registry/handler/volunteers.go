package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trialreg/internal/registry/models"
	"trialreg/internal/registry/service"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/platform/httputil"
)

func (h *Handler) handleCreateVolunteer(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[createVolunteerRequest](r)
	if err != nil {
		h.fail(w, r, "invalid create volunteer request", err)
		return
	}

	initial, err := req.initial()
	if err != nil {
		h.fail(w, r, "invalid create volunteer request", err)
		return
	}
	in := service.CreateVolunteerRequest{Demographics: req.demographics()}
	if initial != nil {
		studyID, err := parseStudyID(initial.StudyID)
		if err != nil {
			h.fail(w, r, "invalid create volunteer request", err)
			return
		}
		in.Initial = &service.InitialEnrollment{
			StudyID:       studyID,
			AdmissionDate: initial.AdmissionDate.ptr(),
			Justification: initial.Justification,
		}
	}

	view, err := h.service.CreateVolunteer(r.Context(), in)
	if err != nil {
		h.fail(w, r, "create volunteer failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVolunteerResponse(view, true))
}

func (h *Handler) handleListVolunteers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListVolunteersRequest{Search: q.Get("search")}
	if raw := q.Get("status"); raw != "" {
		st, ok := models.ParseStatus(raw)
		if !ok {
			h.fail(w, r, "invalid volunteer filter", dErrors.Newf(dErrors.CodeBadRequest, "estado desconocido %q", raw))
			return
		}
		req.Status = &st
	}

	views, err := h.service.ListVolunteers(r.Context(), req)
	if err != nil {
		h.fail(w, r, "list volunteers failed", err)
		return
	}
	out := make([]volunteerResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toVolunteerResponse(v, false))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetVolunteer(w http.ResponseWriter, r *http.Request) {
	volunteerID, err := pathVolunteerID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.GetVolunteer(r.Context(), volunteerID)
	if err != nil {
		h.fail(w, r, "get volunteer failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVolunteerResponse(view, true))
}

func (h *Handler) handleUpdateVolunteer(w http.ResponseWriter, r *http.Request) {
	volunteerID, err := pathVolunteerID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[updateVolunteerRequest](r)
	if err != nil {
		h.fail(w, r, "invalid update volunteer request", err)
		return
	}
	view, err := h.service.UpdateVolunteer(r.Context(), volunteerID, req.patch(), req.Justification)
	if err != nil {
		h.fail(w, r, "update volunteer failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVolunteerResponse(view, true))
}

func (h *Handler) handleSetDictum(w http.ResponseWriter, r *http.Request) {
	volunteerID, err := pathVolunteerID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[dictumRequest](r)
	if err != nil {
		h.fail(w, r, "invalid dictum request", err)
		return
	}
	view, err := h.service.SetManualDictum(r.Context(), service.DictumRequest{
		VolunteerID:   volunteerID,
		Status:        req.Status,
		Reason:        req.Reason,
		Justification: req.Justification,
	})
	if err != nil {
		h.fail(w, r, "set dictum failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVolunteerResponse(view, true))
}

type enrollResponse struct {
	Participation  participationResponse   `json:"participation"`
	Participations []participationResponse `json:"participations"`
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	volunteerID, err := pathVolunteerID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[enrollRequest](r)
	if err != nil {
		h.fail(w, r, "invalid enroll request", err)
		return
	}
	studyID, err := parseStudyID(req.StudyID)
	if err != nil {
		h.fail(w, r, "invalid enroll request", err)
		return
	}

	result, err := h.service.Enroll(r.Context(), service.EnrollRequest{
		VolunteerID:   volunteerID,
		StudyID:       studyID,
		Justification: req.Justification,
		AdmissionDate: req.AdmissionDate.ptr(),
	})
	if err != nil {
		h.fail(w, r, "enroll failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, enrollResponse{
		Participation:  toParticipationResponse(result.Participation),
		Participations: toParticipationResponses(result.Participations),
	})
}

func (h *Handler) handleCloseParticipation(w http.ResponseWriter, r *http.Request) {
	participationID, err := id.ParseParticipationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Participación no encontrada"))
		return
	}
	req, err := httputil.DecodeJSON[closeRequest](r)
	if err != nil {
		h.fail(w, r, "invalid close request", err)
		return
	}
	var payment time.Time
	if req.PaymentDate != nil {
		payment = req.PaymentDate.Time
	}

	view, err := h.service.CloseParticipation(r.Context(), service.CloseRequest{
		ParticipationID: participationID,
		PaymentDate:     payment,
		Justification:   req.Justification,
		Trigger:         "manual",
	})
	if err != nil {
		h.fail(w, r, "close participation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toParticipationResponse(*view))
}
