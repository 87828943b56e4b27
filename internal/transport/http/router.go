// Package httptransport assembles the HTTP surface: middleware chain, feature
// handlers, health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "custodia/internal/audit/handler"
	emergencyhandler "custodia/internal/emergency/handler"
	policyhandler "custodia/internal/policy/handler"
	proposalhandler "custodia/internal/proposal/handler"
	treasuryhandler "custodia/internal/treasury/handler"
	"custodia/pkg/platform/httputil"
	"custodia/pkg/platform/middleware/auth"
	"custodia/pkg/platform/middleware/metadata"
	"custodia/pkg/platform/middleware/requesttime"
)

// Handlers collects the feature handlers the router mounts.
type Handlers struct {
	Treasury  *treasuryhandler.Handler
	Proposal  *proposalhandler.Handler
	Policy    *policyhandler.Handler
	Emergency *emergencyhandler.Handler
	Audit     *audithandler.Handler
}

// HealthCheck probes one named backend dependency.
type HealthCheck struct {
	Name  string
	Check func(context.Context) error
}

// NewRouter wires the middleware chain and every feature handler. Health and
// metrics are unauthenticated; everything else requires a valid bearer token
// asserting the caller's address.
func NewRouter(h Handlers, validator auth.TokenValidator, logger *slog.Logger, checks ...HealthCheck) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", handleHealth(checks, logger))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireActor(validator, logger))

		h.Treasury.Register(r)
		h.Proposal.Register(r)
		h.Policy.Register(r)
		h.Emergency.Register(r)
		h.Audit.Register(r)
	})

	return r
}

func handleHealth(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, c := range checks {
			if err := c.Check(r.Context()); err != nil {
				logger.ErrorContext(r.Context(), "health check failed", "backend", c.Name, "error", err)
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[c.Name] = "unavailable"
				continue
			}
			body[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
