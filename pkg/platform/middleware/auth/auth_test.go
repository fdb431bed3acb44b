package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialreg/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := uuid.NewString()

	var got requestcontext.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = requestcontext.SessionFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing header", func(t *testing.T) {
		h := RequireAuth(stubValidator{}, logger)(next)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		h := RequireAuth(stubValidator{err: errors.New("bad")}, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token builds the session", func(t *testing.T) {
		h := RequireAuth(stubValidator{claims: &JWTClaims{
			UserID: userID, Username: "mgarcia", FullName: "María García", IsStaff: true,
		}}, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, userID, got.UserID.String())
		assert.Equal(t, "mgarcia", got.Username)
		assert.True(t, got.IsStaff)
	})
}
