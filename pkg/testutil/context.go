package testutil

import (
	"net/http"
	"time"

	id "trialreg/pkg/domain"
	"trialreg/pkg/requestcontext"
)

// WithSession attaches s to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithSession(req *http.Request, s requestcontext.Session) *http.Request {
	return req.WithContext(requestcontext.WithSession(req.Context(), s))
}

// AsStaff attaches a staff session for username with a fresh user id.
func AsStaff(req *http.Request, username string) *http.Request {
	return WithSession(req, requestcontext.Session{UserID: id.NewUserID(), Username: username, IsStaff: true})
}

// AsReader attaches a non-staff session for username with a fresh user id.
func AsReader(req *http.Request, username string) *http.Request {
	return WithSession(req, requestcontext.Session{UserID: id.NewUserID(), Username: username})
}

// WithTime pins the request-scoped clock.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
