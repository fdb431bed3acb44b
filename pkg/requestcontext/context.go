// Package requestcontext provides HTTP-independent accessors for request-scoped values.
//
// Middleware sets the values; services read them. Keeping this package free of
// net/http lets services and workers depend on it without pulling in transport code.
//
// Usage in services:
//
//	session, ok := requestcontext.SessionFrom(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests:
//
//	ctx = requestcontext.WithSession(ctx, requestcontext.Session{Username: "admin", IsStaff: true})
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "trialreg/pkg/domain"
)

type (
	sessionKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
)

// Session is the authenticated caller of a request. It is built by the auth
// middleware from a validated token and travels with the request context only.
type Session struct {
	UserID   id.UserID
	Username string
	FullName string
	IsStaff  bool
}

// IsZero reports whether no caller is attached.
func (s Session) IsZero() bool {
	return s.UserID.IsNil() && s.Username == ""
}

// SystemSession identifies background workers in audit entries.
var SystemSession = Session{Username: "system", FullName: "Proceso automático", IsStaff: true}

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// SessionFrom returns the session attached to ctx.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// WithSession attaches a session to ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// UserID returns the caller's user id, or the nil id when unauthenticated.
func UserID(ctx context.Context) id.UserID {
	s, _ := SessionFrom(ctx)
	return s.UserID
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the raw User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() when not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
