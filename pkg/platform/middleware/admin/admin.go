package admin

import (
	"log/slog"
	"net/http"

	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/platform/httputil"
	request "trialreg/pkg/platform/middleware/request"
	"trialreg/pkg/requestcontext"
)

// RequireStaff admits only sessions with the staff flag. It must run after
// auth.RequireAuth.
func RequireStaff(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			session, ok := requestcontext.SessionFrom(ctx)
			if !ok || session.IsZero() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
				return
			}
			if !session.IsStaff {
				logger.WarnContext(ctx, "forbidden - staff required",
					"username", session.Username,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "No tiene permisos para realizar esta acción"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ReadOnlyUnlessStaff lets any authenticated caller use safe methods and
// requires staff for everything else.
func ReadOnlyUnlessStaff(logger *slog.Logger) func(http.Handler) http.Handler {
	staff := RequireStaff(logger)
	return func(next http.Handler) http.Handler {
		guarded := staff(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}
