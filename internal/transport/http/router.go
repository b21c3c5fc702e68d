package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridmerge/internal/config"
	apierrors "gridmerge/internal/errors"
	"gridmerge/internal/middleware"
	"gridmerge/internal/operations"
	"gridmerge/internal/websocket"
)

// NewRouter assembles the full HTTP surface: the combine API, health,
// Prometheus metrics and the websocket progress stream.
func NewRouter(cfg *config.Config, manager *operations.Manager, hub *websocket.Hub, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(errorHandler.Recoverer)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger)
		r.Use(limiter.Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	combine := NewCombineHandler(manager, errorHandler, logger)
	health := NewHealthHandler()

	r.Route("/api", func(api chi.Router) {
		if cfg.Server.CombineTimeout > 0 {
			api.Use(middleware.Timeout(cfg.Server.CombineTimeout, logger))
		}
		api.Post("/combine", combine.Combine)
		api.Get("/operations", combine.ListOperations)
		api.Get("/operations/{id}", combine.GetOperation)
		api.Get("/health", health.HealthCheck)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", websocket.Handler(hub, cfg.WebSocket, logger))

	return r
}
