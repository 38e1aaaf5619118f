// Package httpapi assembles the HTTP surface: middleware chain, public
// and authenticated route groups, the admin group, health and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	documenthandler "vitrina/internal/document/handler"
	onboardinghandler "vitrina/internal/onboarding/handler"
	"vitrina/internal/platform/middleware"
	providerhandler "vitrina/internal/provider/handler"
	subjecthandler "vitrina/internal/subject/handler"
	verificationhandler "vitrina/internal/verification/handler"
	"vitrina/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// HealthCheck is one named dependency check run by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps carries everything the router wires together.
type Deps struct {
	Logger       *slog.Logger
	Tokens       middleware.TokenValidator
	Subjects     *subjecthandler.Handler
	Verification *verificationhandler.Handler
	Onboarding   *onboardinghandler.Handler
	Documents    *documenthandler.Handler
	Providers    *providerhandler.Handler
	Health       []HealthCheck
}

// NewRouter builds the full route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Registration is the only unauthenticated business route.
	r.Group(func(public chi.Router) {
		public.Use(middleware.ContentTypeJSON)
		deps.Subjects.RegisterPublic(public)
	})

	r.Group(func(auth chi.Router) {
		auth.Use(middleware.ContentTypeJSON)
		auth.Use(middleware.RequireAuth(deps.Tokens, deps.Logger))

		deps.Subjects.Register(auth)
		deps.Verification.Register(auth)
		deps.Onboarding.Register(auth)
		deps.Documents.Register(auth)
		deps.Providers.Register(auth)

		auth.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin)
			deps.Providers.RegisterAdmin(admin)
			deps.Documents.RegisterAdmin(admin)
		})
	})

	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				results[check.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[check.Name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": results,
		})
	}
}
