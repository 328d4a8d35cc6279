package api

import (
	"net/http"
	"strconv"

	"github.com/andrewbaggio1/sthealth-core/internal/engagement"
	"github.com/andrewbaggio1/sthealth-core/internal/models"
	"github.com/andrewbaggio1/sthealth-core/internal/nudge"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

type NudgeHandler struct {
	sched    *nudge.Scheduler
	nudges   *store.NudgeStore
	recorder *engagement.Recorder
}

func NewNudgeHandler(sched *nudge.Scheduler, nudges *store.NudgeStore, recorder *engagement.Recorder) *NudgeHandler {
	return &NudgeHandler{sched: sched, nudges: nudges, recorder: recorder}
}

// Evaluate handles POST /nudges/evaluate
//
// A foreground trigger means "the user just finished doing something", so the
// evaluation must see the events that prompted it.
func (h *NudgeHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	h.recorder.Flush()
	h.sched.CheckForOpportunity()
	writeJSON(w, http.StatusAccepted, h.sched.State())
}

// Current handles GET /nudges/current
func (h *NudgeHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.State())
}

// Acknowledge handles POST /nudges/current/acknowledge
func (h *NudgeHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	if !h.sched.Acknowledge() {
		writeError(w, http.StatusConflict, "no nudge is currently displayed")
		return
	}
	writeJSON(w, http.StatusOK, h.sched.State())
}

// Dismiss handles POST /nudges/current/dismiss
func (h *NudgeHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	if !h.sched.Dismiss() {
		writeError(w, http.StatusConflict, "no nudge is currently displayed")
		return
	}
	writeJSON(w, http.StatusOK, h.sched.State())
}

// List handles GET /nudges
func (h *NudgeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	nudges, err := h.nudges.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := h.nudges.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.NudgeListResponse{Nudges: nudges, Total: total})
}
