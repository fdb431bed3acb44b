package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "trialreg/internal/audit/handler"
	authhandler "trialreg/internal/auth/handler"
	"trialreg/internal/platform/metrics"
	"trialreg/internal/platform/middleware"
	registryhandler "trialreg/internal/registry/handler"
	"trialreg/pkg/platform/httputil"
	"trialreg/pkg/platform/middleware/admin"
	authmw "trialreg/pkg/platform/middleware/auth"
	"trialreg/pkg/platform/middleware/metadata"
	request "trialreg/pkg/platform/middleware/request"
	"trialreg/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

type routerDeps struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	registry  registryhandler.Service
	auth      authhandler.Service
	auditLog  audithandler.Service
	validator authmw.JWTValidator
	health    []func(context.Context) error
}

// newRouter mounts the public token endpoint, the registry for any signed-in
// user (writes staff only) and the admin endpoints for staff.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(d.logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.logger))
	r.Use(middleware.Latency(d.metrics))

	r.Get("/healthz", healthHandler(d.health))
	r.Handle("/metrics", promhttp.Handler())

	authH := authhandler.New(d.auth, d.logger)
	authH.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.validator, d.logger))

		r.Group(func(r chi.Router) {
			r.Use(admin.ReadOnlyUnlessStaff(d.logger))
			registryhandler.New(d.registry, d.logger).Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireStaff(d.logger))
			audithandler.New(d.auditLog, d.logger).Register(r)
			authH.RegisterAdmin(r)
		})
	})
	return r
}

func healthHandler(checks []func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
