package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "bullishbrief/internal/admin"
	consenthandler "bullishbrief/internal/consent/handler"
	"bullishbrief/internal/platform/middleware"
	subscriptionhandler "bullishbrief/internal/subscription/handler"
	"bullishbrief/internal/transport/http/shared"
)

// RouterDeps collects the handlers and cross-cutting pieces the router wires
// together. Auth is a middleware factory so the router stays ignorant of the
// token format.
type RouterDeps struct {
	Consent      *consenthandler.Handler
	Subscription *subscriptionhandler.Handler
	Admin        *adminhandler.Handler
	RequireAuth  func(http.Handler) http.Handler

	RateLimitPerSecond float64
	RateLimitBurst     int

	Checks map[string]func() error
}

// NewRouter wires all public endpoints with the middleware stack.
func NewRouter(deps RouterDeps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", handleHealth(deps.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		if deps.RateLimitPerSecond > 0 {
			r.Use(middleware.RateLimit(deps.RateLimitPerSecond, deps.RateLimitBurst))
		}

		deps.Consent.Register(r)
		deps.Subscription.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(deps.RequireAuth)
			deps.Subscription.RegisterAuthenticated(r)
		})
	})

	r.Group(func(r chi.Router) {
		deps.Admin.Register(r)
	})

	return r
}

// handleHealth runs each configured dependency check; any failure flips the
// status to 503 with per-check detail.
func handleHealth(checks map[string]func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		detail := make(map[string]string, len(checks))

		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				detail[name] = err.Error()
				continue
			}
			detail[name] = "ok"
		}

		shared.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": detail,
		})
	}
}
