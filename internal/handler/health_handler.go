package handler

import (
	"context"
	"net/http"
	"time"

	"go-contacts-api/internal/model"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

// NewHealthHandler reports liveness, and database reachability when db is set.
func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Health(ctx); err != nil {
			status["status"], status["database"] = "degraded", "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, model.APIResponse{Success: false, Data: status})
			return
		}
		status["database"] = "ok"
	}

	writeSuccess(w, http.StatusOK, status, nil)
}
