package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"trialreg/internal/audit"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/platform/httputil"
	"trialreg/pkg/requestcontext"
)

// Service is the read side of the audit log.
type Service interface {
	List(ctx context.Context, filter audit.ListFilter) ([]*audit.Entry, error)
}

// Handler serves the admin audit log.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes. Callers must wrap r with staff-only middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/admin/logs", h.handleList)
}

type entryResponse struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	User          string          `json:"user"`
	Action        audit.Action    `json:"action"`
	Model         audit.Model     `json:"model_affected"`
	RecordID      string          `json:"record_id"`
	Justification string          `json:"justification"`
	Changes       audit.ChangeSet `json:"changes"`
	Client        string          `json:"client,omitempty"`
}

type listResponse struct {
	Entries []entryResponse `json:"entries"`
	Count   int             `json:"count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit entries",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries"))
		return
	}

	resp := listResponse{Entries: make([]entryResponse, 0, len(entries)), Count: len(entries)}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, entryResponse{
			ID:            e.ID.String(),
			Timestamp:     e.Timestamp,
			User:          e.Actor.Username,
			Action:        e.Action,
			Model:         e.Model,
			RecordID:      e.RecordID,
			Justification: e.Justification,
			Changes:       e.Changes,
			Client:        e.Client,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (audit.ListFilter, error) {
	var filter audit.ListFilter
	q := r.URL.Query()
	if raw := q.Get("model"); raw != "" {
		model, ok := audit.ParseModel(raw)
		if !ok {
			return filter, dErrors.Newf(dErrors.CodeBadRequest, "modelo desconocido %q", raw)
		}
		filter.Model = model
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "limit debe ser un entero positivo")
		}
		filter.Limit = n
	}
	return filter, nil
}
