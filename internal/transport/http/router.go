// Package httptransport assembles the HTTP edge: routing, cross-cutting
// middleware, and the operational endpoints. Business logic stays in the
// domain services; this layer only mounts their handlers.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authHandler "mintgate/internal/auth/handler"
	oracleHandler "mintgate/internal/oracle/handler"
	phaseHandler "mintgate/internal/phase/handler"
	"mintgate/internal/platform/metrics"
	"mintgate/internal/platform/middleware"
	rolesHandler "mintgate/internal/roles/handler"
	saleHandler "mintgate/internal/sale/handler"
)

// Deps collects everything the router mounts.
type Deps struct {
	Auth   *authHandler.Handler
	Phases *phaseHandler.Handler
	Sale   *saleHandler.Handler
	Oracle *oracleHandler.Handler
	Roles  *rolesHandler.Handler

	JWT            middleware.JWTValidator
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
}

// NewRouter wires all endpoints. Reads are open; purchases and every mutating
// admin operation sit behind token authentication, with role checks applied
// by the services themselves.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(instrument(d.Metrics))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	d.Auth.Register(r)
	d.Phases.Register(r)
	d.Sale.Register(r)
	d.Oracle.Register(r)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(d.JWT, d.Logger))
		pr.Use(middleware.ContentTypeJSON)
		d.Phases.RegisterProtected(pr)
		d.Sale.RegisterProtected(pr)
		d.Oracle.RegisterProtected(pr)
		d.Roles.RegisterProtected(pr)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// instrument records request latency per method and route pattern.
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, path, time.Since(start))
		})
	}
}
