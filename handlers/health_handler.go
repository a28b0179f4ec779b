package handlers

import (
	"context"
	"net/http"

	"github.com/vidyalabs/tutor-backend/utils"
)

// Pinger reports backing-store liveness.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HandleHealth handles GET /api/health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, map[string]string{
		"status":  "ok",
		"service": "tutor-backend",
	})
}

// HandleReady handles GET /api/ready; fails when the database is unreachable
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		_ = utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}
	_ = utils.WriteOK(w, map[string]string{"status": "ready"})
}
