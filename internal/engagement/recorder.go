// Package engagement accepts interaction events from the UI surfaces and
// persists them off the caller's path. Recording must feel free at the call
// site: it never blocks, never returns an error, and absorbs store hiccups
// with background retries.
package engagement

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

const (
	queueSize     = 256
	insertRetries = 3
	retryDelay    = 250 * time.Millisecond
)

type item struct {
	event *models.EngagementEvent
	flush chan struct{} // non-nil marks a flush barrier, no event attached
}

// Recorder is the write side of the engagement log.
type Recorder struct {
	events *store.EventStore
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan item
	wg     sync.WaitGroup
}

func NewRecorder(events *store.EventStore, logger *slog.Logger) *Recorder {
	r := &Recorder{
		events: events,
		logger: logger,
		ch:     make(chan item, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record accepts one event and returns its assigned ID. Never fails: invalid
// events are logged and dropped, a full queue drops the event rather than
// block the UI, and store errors are retried by the background writer.
func (r *Recorder) Record(req *models.RecordEventRequest) string {
	if !req.Context.IsValid() || !req.InteractionType.IsValid() || req.ItemIdentifier == "" {
		r.logger.Warn("dropping malformed engagement event",
			"context", string(req.Context), "interactionType", string(req.InteractionType))
		return ""
	}

	ts := req.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	e := &models.EngagementEvent{
		ID:              uuid.New().String(),
		Timestamp:       ts,
		Context:         req.Context,
		ItemIdentifier:  req.ItemIdentifier,
		InteractionType: req.InteractionType,
		Duration:        clampDuration(req.Duration),
		Intensity:       clampIntensity(req.Intensity),
		Metadata:        req.Metadata,
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("recorder closed, dropping engagement event", "id", e.ID)
		return ""
	}
	select {
	case r.ch <- item{event: e}:
	default:
		r.logger.Error("engagement queue full, dropping event", "id", e.ID)
	}
	return e.ID
}

// Flush blocks until every event accepted before the call has been handed to
// the store. Used by shutdown and tests.
func (r *Recorder) Flush() {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	ack := make(chan struct{})
	r.ch <- item{flush: ack}
	r.mu.RUnlock()
	<-ack
}

// Close drains the queue and stops the background writer.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for it := range r.ch {
		if it.flush != nil {
			close(it.flush)
			continue
		}
		r.persist(it.event)
	}
}

func (r *Recorder) persist(e *models.EngagementEvent) {
	var err error
	for attempt := 0; attempt < insertRetries; attempt++ {
		if err = r.events.Insert(e); err == nil {
			return
		}
		time.Sleep(retryDelay * time.Duration(attempt+1))
	}
	r.logger.Error("engagement event lost after retries", "id", e.ID, "error", err)
}

func clampDuration(d float64) float64 {
	if d < 0 {
		return 0
	}
	return d
}

func clampIntensity(i float64) float64 {
	if i < 0 {
		return 0
	}
	if i > 1 {
		return 1
	}
	return i
}
