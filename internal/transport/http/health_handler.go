package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Version is stamped at build time.
var Version = "dev"

// HealthHandler reports service liveness.
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "healthy",
		"version": Version,
		"uptime":  time.Since(h.startedAt).String(),
	})
}
