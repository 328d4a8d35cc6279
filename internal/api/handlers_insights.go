package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andrewbaggio1/sthealth-core/internal/engagement"
	"github.com/andrewbaggio1/sthealth-core/internal/models"
	"github.com/andrewbaggio1/sthealth-core/internal/profile"
	"github.com/andrewbaggio1/sthealth-core/internal/significance"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

type InsightHandler struct {
	recorder *engagement.Recorder
	events   *store.EventStore
	builder  *profile.Builder
}

func NewInsightHandler(recorder *engagement.Recorder, events *store.EventStore, builder *profile.Builder) *InsightHandler {
	return &InsightHandler{recorder: recorder, events: events, builder: builder}
}

// Concepts handles GET /insights/concepts
func (h *InsightHandler) Concepts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}

	h.recorder.Flush()

	events, err := h.events.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scores := significance.TopConcepts(events, limit)
	writeJSON(w, http.StatusOK, models.ConceptsResponse{Concepts: scores, Total: len(scores)})
}

// Profile handles GET /insights/profile
func (h *InsightHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.recorder.Flush()

	snap, err := h.builder.Snapshot(r.Context(), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.ProfileResponse{Profile: snap.Profile, Behavior: snap.Behavior})
}

// Diagnostics handles GET /insights/diagnostics
func (h *InsightHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	threshold := significance.DefaultSpikeThreshold
	if t, err := strconv.ParseFloat(r.URL.Query().Get("threshold"), 64); err == nil && t > 0 {
		threshold = t
	}

	h.recorder.Flush()

	events, err := h.events.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.DiagnosticsResponse{
		AttentionDivergence:   significance.HasAttentionDivergence(events),
		ContradictoryEvidence: significance.HasContradictoryEvidence(events),
		EngagementSpike:       significance.HasEngagementSpike(events, threshold, time.Now()),
	})
}
