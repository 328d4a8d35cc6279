package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/andrewbaggio1/sthealth-core/internal/analytics"
	"github.com/andrewbaggio1/sthealth-core/internal/engagement"
	"github.com/andrewbaggio1/sthealth-core/internal/nudge"
	"github.com/andrewbaggio1/sthealth-core/internal/profile"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	db *store.DB,
	recorder *engagement.Recorder,
	events *store.EventStore,
	nudges *store.NudgeStore,
	builder *profile.Builder,
	sched *nudge.Scheduler,
	sink analytics.Sink,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	// Handlers
	healthH := NewHealthHandler(db, sched)
	eventH := NewEventHandler(recorder, events, builder, sink)
	nudgeH := NewNudgeHandler(sched, nudges, recorder)
	insightH := NewInsightHandler(recorder, events, builder)
	watchH := NewWatchHandler(sched, logger)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventH.List)
			r.Post("/", eventH.Record)
			r.Post("/reset", eventH.Reset)
		})

		r.Route("/nudges", func(r chi.Router) {
			r.Get("/", nudgeH.List)
			r.Post("/evaluate", nudgeH.Evaluate)
			r.Get("/watch", watchH.Watch)
			r.Get("/current", nudgeH.Current)
			r.Post("/current/acknowledge", nudgeH.Acknowledge)
			r.Post("/current/dismiss", nudgeH.Dismiss)
		})

		r.Route("/insights", func(r chi.Router) {
			r.Get("/concepts", insightH.Concepts)
			r.Get("/profile", insightH.Profile)
			r.Get("/diagnostics", insightH.Diagnostics)
		})
	})

	return r
}
