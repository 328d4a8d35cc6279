package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andrewbaggio1/sthealth-core/internal/analytics"
	"github.com/andrewbaggio1/sthealth-core/internal/engagement"
	"github.com/andrewbaggio1/sthealth-core/internal/models"
	"github.com/andrewbaggio1/sthealth-core/internal/profile"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

type EventHandler struct {
	recorder *engagement.Recorder
	events   *store.EventStore
	builder  *profile.Builder
	sink     analytics.Sink
}

func NewEventHandler(recorder *engagement.Recorder, events *store.EventStore, builder *profile.Builder, sink analytics.Sink) *EventHandler {
	return &EventHandler{recorder: recorder, events: events, builder: builder, sink: sink}
}

// Record handles POST /events
func (h *EventHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req models.RecordEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !req.Context.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid context")
		return
	}
	if !req.InteractionType.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid interactionType")
		return
	}
	if req.ItemIdentifier == "" {
		writeError(w, http.StatusBadRequest, "itemIdentifier is required")
		return
	}
	if req.Duration < 0 {
		writeError(w, http.StatusBadRequest, "duration must not be negative")
		return
	}
	if req.Intensity < 0 || req.Intensity > 1 {
		writeError(w, http.StatusBadRequest, "intensity must be between 0 and 1")
		return
	}

	id := h.recorder.Record(&req)
	writeJSON(w, http.StatusAccepted, models.RecordEventResponse{ID: id, Accepted: true})
}

// List handles GET /events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	until, _ := strconv.ParseInt(r.URL.Query().Get("until"), 10, 64)

	var contexts []models.EngagementContext
	if cs := r.URL.Query().Get("context"); cs != "" {
		for _, c := range strings.Split(cs, ",") {
			contexts = append(contexts, models.EngagementContext(c))
		}
	}

	q := &models.EventQuery{
		Concept:  r.URL.Query().Get("concept"),
		Contexts: contexts,
		Since:    since,
		Until:    until,
		Limit:    limit,
	}

	// Make queued writes visible before a read of the log.
	h.recorder.Flush()

	events, err := h.events.Query(q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.EventsResponse{Events: events, Total: len(events)})
}

// Reset handles POST /events/reset
func (h *EventHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.recorder.Flush()

	deleted, err := h.events.ClearAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.builder.Invalidate()
	h.sink.Record(analytics.EventEngagementReset, map[string]any{"deleted": deleted})
	writeJSON(w, http.StatusOK, models.ResetResponse{Deleted: int(deleted)})
}
