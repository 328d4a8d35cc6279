package api

import (
	"net/http"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
	"github.com/andrewbaggio1/sthealth-core/internal/nudge"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

type HealthHandler struct {
	db    *store.DB
	sched *nudge.Scheduler
}

func NewHealthHandler(db *store.DB, sched *nudge.Scheduler) *HealthHandler {
	return &HealthHandler{db: db, sched: sched}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:    "ok",
		DB:        models.ServiceCheck{Status: "ok"},
		Scheduler: h.sched.State().State,
	}

	count, err := h.db.EventCount()
	if err != nil {
		resp.Status = "degraded"
		resp.DB = models.ServiceCheck{Status: "error", Message: err.Error()}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.EventCount = count

	writeJSON(w, http.StatusOK, resp)
}
