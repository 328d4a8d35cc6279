// Package analytics ships telemetry about nudge outcomes to the backend.
// Everything here is fire-and-forget: a dead backend can never stall or fail
// the scheduler, only produce warn logs.
package analytics

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event types emitted by the scheduler and the reset flow.
const (
	EventNudgeDelivered     = "nudge_delivered"
	EventNudgeAcknowledged  = "nudge_acknowledged"
	EventNudgeDismissed     = "nudge_dismissed"
	EventNudgeTimeout       = "nudge_timeout"
	EventEvaluationSkipped  = "evaluation_skipped"
	EventEvaluationDeclined = "evaluation_declined"
	EventEngagementReset    = "events_reset"
)

// Sink accepts telemetry events.
type Sink interface {
	Record(eventType string, payload map[string]any)
	Close()
}

// NopSink swallows everything. Used when no ingest URL is configured.
type NopSink struct{}

func (NopSink) Record(string, map[string]any) {}
func (NopSink) Close()                        {}

const (
	sinkQueueSize     = 512
	sinkBatchSize     = 16
	sinkFlushInterval = 10 * time.Second
)

type entry struct {
	EventType  string         `json:"event_type"`
	Payload    map[string]any `json:"payload,omitempty"`
	RecordedAt int64          `json:"recorded_at"`
}

type batchRequest struct {
	Events []entry `json:"events"`
	SentAt int64   `json:"sent_at"`
}

// HTTPSink batches events and POSTs them to the backend ingest endpoint.
type HTTPSink struct {
	ingestURL string
	token     string
	client    *http.Client
	logger    *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan entry
	wg     sync.WaitGroup
}

func NewHTTPSink(ingestURL, token string, logger *slog.Logger) *HTTPSink {
	s := &HTTPSink{
		ingestURL: ingestURL,
		token:     token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		ch:     make(chan entry, sinkQueueSize),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Record enqueues one event. Non-blocking; a full queue drops the event.
func (s *HTTPSink) Record(eventType string, payload map[string]any) {
	e := entry{
		EventType:  eventType,
		Payload:    payload,
		RecordedAt: time.Now().Unix(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
		s.logger.Warn("analytics queue full, dropping event", "eventType", eventType)
	}
}

// Close flushes anything still queued and stops the flusher.
func (s *HTTPSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *HTTPSink) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(sinkFlushInterval)
	defer ticker.Stop()

	batch := make([]entry, 0, sinkBatchSize)
	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= sinkBatchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *HTTPSink) flush(batch []entry) {
	if len(batch) == 0 {
		return
	}

	body, err := json.Marshal(batchRequest{Events: batch, SentAt: time.Now().Unix()})
	if err != nil {
		s.logger.Warn("marshal analytics batch", "error", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, s.ingestURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("build analytics request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("submit analytics batch", "error", err, "events", len(batch))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("analytics backend rejected batch", "status", resp.StatusCode, "events", len(batch))
	}
}
