package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkgate/internal/platform/metrics"
	"inkgate/internal/platform/middleware"
)

// Handler is the thin HTTP layer. It delegates to the auth service without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	auth   AuthService
	health func(context.Context) error
	logger *slog.Logger
}

// NewHandler builds the HTTP handler set. health may be nil when no backing
// database is configured; /healthz then only reports process liveness.
func NewHandler(auth AuthService, health func(context.Context) error, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, health: health, logger: logger}
}

// NewRouter wires the public endpoints with the middleware stack. The client
// metadata layer runs early so every downstream component sees the resolved
// originating address, not the proxy hop.
func NewRouter(h *Handler, resolver middleware.IdentityResolver, trustProxies bool, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.ClientMetadata(trustProxies))
	r.Use(middleware.Authenticate(resolver, logger))

	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/refresh", h.handleRefresh)
	r.Post("/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity)
		r.Get("/auth/me", h.handleMe)
	})

	r.Get("/healthz", h.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
