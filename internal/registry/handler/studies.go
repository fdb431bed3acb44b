package handler

import (
	"net/http"
	"strconv"

	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/platform/httputil"
)

func (h *Handler) handleListStudies(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "active debe ser true o false"))
			return
		}
		activeOnly = v
	}

	studies, err := h.service.ListStudies(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, r, "list studies failed", err)
		return
	}
	out := make([]studyResponse, 0, len(studies))
	for _, s := range studies {
		out = append(out, toStudyResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateStudy(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[studyRequest](r)
	if err != nil {
		h.fail(w, r, "invalid create study request", err)
		return
	}
	study, err := h.service.CreateStudy(r.Context(), req.fields())
	if err != nil {
		h.fail(w, r, "create study failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toStudyResponse(study))
}

func (h *Handler) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	studyID, err := pathStudyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	study, err := h.service.GetStudy(r.Context(), studyID)
	if err != nil {
		h.fail(w, r, "get study failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudyResponse(study))
}

func (h *Handler) handleUpdateStudy(w http.ResponseWriter, r *http.Request) {
	studyID, err := pathStudyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeJSON[updateStudyRequest](r)
	if err != nil {
		h.fail(w, r, "invalid update study request", err)
		return
	}
	study, err := h.service.UpdateStudy(r.Context(), studyID, req.patch(), req.Justification)
	if err != nil {
		h.fail(w, r, "update study failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudyResponse(study))
}
