// Package httpapi assembles the HTTP router: middleware stack, operational
// endpoints, and the donation API. Business logic stays in the service layer.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hemabank/internal/donation/handler"
	"hemabank/internal/platform/metrics"
	"hemabank/internal/platform/middleware"
)

// Deps carries everything the router needs. Limiter is optional.
type Deps struct {
	Donation  *handler.Handler
	Validator middleware.TokenValidator
	Metrics   *metrics.Metrics
	Limiter   middleware.Limiter
	Logger    *slog.Logger
}

// NewRouter wires the public surface. Operational endpoints skip auth; the
// donation API sits behind the full middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(deps.Logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.RequestTime)
		r.Use(middleware.Logger(deps.Logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.Latency(deps.Metrics))
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		if deps.Limiter != nil {
			r.Use(middleware.RateLimit(deps.Limiter, deps.Metrics, deps.Logger))
		}
		deps.Donation.Register(r)
	})

	return r
}
