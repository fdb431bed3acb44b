package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trialreg/internal/auth/models"
	"trialreg/internal/auth/service"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/platform/httputil"
	"trialreg/pkg/requestcontext"
)

// Service defines the interface for authentication and account operations.
type Service interface {
	Login(ctx context.Context, username, password string) (*service.TokenResult, error)
	CreateUser(ctx context.Context, req service.CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Handler handles login and user administration endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterPublic mounts routes that need no bearer token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/api/token", h.handleToken)
}

// RegisterAdmin mounts staff-only routes. Callers must wrap r with staff middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/api/admin/users", h.handleListUsers)
	r.Post("/api/admin/users", h.handleCreateUser)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	IsStaff     bool   `json:"is_staff"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := httputil.DecodeJSON[tokenRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid token request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   int64(result.ExpiresIn / time.Second),
		Username:    result.User.Username,
		FullName:    result.User.FullName,
		IsStaff:     result.User.IsStaff,
	})
}

type createUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	IsStaff  bool   `json:"is_staff"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := httputil.DecodeJSON[createUserRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.CreateUser(ctx, service.CreateUserRequest(req))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to create user",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.service.ListUsers(ctx)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to list users",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		FullName:  u.FullName,
		IsStaff:   u.IsStaff,
		CreatedAt: u.CreatedAt,
	}
}
