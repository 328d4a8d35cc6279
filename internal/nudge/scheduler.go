// Package nudge owns the delivery lifecycle: deciding when the user should
// be interrupted, with what, and making sure it happens at most once per
// interval with exactly one live nudge at any time.
package nudge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrewbaggio1/sthealth-core/internal/analytics"
	"github.com/andrewbaggio1/sthealth-core/internal/generation"
	"github.com/andrewbaggio1/sthealth-core/internal/models"
	"github.com/andrewbaggio1/sthealth-core/internal/profile"
	"github.com/andrewbaggio1/sthealth-core/internal/receptivity"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

// Options are the operational knobs of the scheduler. Semantics (type
// selection, receptivity rules) are fixed; only timing is configurable.
type Options struct {
	MinInterval    time.Duration // floor between deliveries, survives restarts
	DisplayTimeout time.Duration // how long a delivered nudge waits for a response
	SettleDelay    time.Duration // how long a terminal state lingers for the UI
}

// Scheduler is the single owner of nudge state. Every transition happens
// under one mutex; timers re-enter through a generation counter so a stale
// callback can never touch a newer nudge.
type Scheduler struct {
	builder   *profile.Builder
	generator *generation.Service
	nudges    *store.NudgeStore
	states    *store.StateStore
	sink      analytics.Sink
	logger    *slog.Logger
	opts      Options
	hub       *Hub

	mu           sync.Mutex
	st           models.SchedulerState
	current      *models.Nudge
	lastDelivery time.Time
	generation   uint64
	displayTimer *time.Timer
	settleTimer  *time.Timer
	stopped      bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewScheduler(
	builder *profile.Builder,
	generator *generation.Service,
	nudges *store.NudgeStore,
	states *store.StateStore,
	sink analytics.Sink,
	logger *slog.Logger,
	opts Options,
) *Scheduler {
	s := &Scheduler{
		builder:   builder,
		generator: generator,
		nudges:    nudges,
		states:    states,
		sink:      sink,
		logger:    logger,
		opts:      opts,
		hub:       NewHub(),
		st:        models.StateIdle,
	}

	last, err := states.LastNudgeDelivery()
	if err != nil {
		logger.Error("load last delivery time", "error", err)
	}
	if last > 0 {
		s.lastDelivery = time.Unix(last, 0)
	}
	return s
}

// Hub exposes the state-change feed for subscribers.
func (s *Scheduler) Hub() *Hub {
	return s.hub
}

// Start runs the periodic evaluation loop until Stop is called.
func (s *Scheduler) Start(interval time.Duration) {
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.evaluate(context.Background())
			case <-stopCh:
				return
			}
		}
	}()
	s.logger.Info("nudge scheduler started", "interval", interval.String())
}

// Stop halts the periodic loop, cancels any live timers, and waits for
// in-flight evaluations. Safe to call without Start and safe to call twice.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	if s.displayTimer != nil {
		s.displayTimer.Stop()
		s.displayTimer = nil
	}
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
	// Invalidate callbacks that already fired but have not taken the lock.
	s.generation++
	s.mu.Unlock()
	s.wg.Wait()
}

// CheckForOpportunity triggers one evaluation cycle off the caller's
// goroutine. Foreground transitions and the periodic loop both land here;
// while a cycle is running or a nudge is live, extra calls are no-ops.
func (s *Scheduler) CheckForOpportunity() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.evaluate(context.Background())
	}()
}

// State returns the current lifecycle position and live nudge, if any.
func (s *Scheduler) State() *models.NudgeStateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Acknowledge resolves the live nudge as accepted. Returns false when there
// is nothing to acknowledge, which callers treat as a no-op.
func (s *Scheduler) Acknowledge() bool {
	return s.resolve(models.ResponseAcknowledged, models.StateAcknowledged, analytics.EventNudgeAcknowledged)
}

// Dismiss resolves the live nudge as waved away. Recorded as an ignored
// response so the archive distinguishes it from a timeout.
func (s *Scheduler) Dismiss() bool {
	return s.resolve(models.ResponseIgnored, models.StateDismissed, analytics.EventNudgeDismissed)
}

// evaluate runs one full cycle: gate, snapshot, receptivity, selection,
// generation, delivery. Any failure degrades to "no nudge this cycle".
func (s *Scheduler) evaluate(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	if s.stopped || s.st != models.StateIdle {
		s.mu.Unlock()
		return
	}
	// The interval gate runs before any profile work so background checks
	// stay cheap for the whole day after a delivery.
	if !s.lastDelivery.IsZero() && now.Sub(s.lastDelivery) < s.opts.MinInterval {
		s.mu.Unlock()
		s.sink.Record(analytics.EventEvaluationSkipped, map[string]any{"reason": "min_interval"})
		return
	}
	s.setStateLocked(models.StateEvaluating)
	s.mu.Unlock()

	snap, err := s.builder.Snapshot(ctx, now)
	if err != nil {
		s.logger.Warn("snapshot build failed, skipping evaluation", "error", err)
		s.backToIdle()
		return
	}

	receptive, reason := receptivity.Evaluate(snap.Profile, snap.Behavior, now.UTC())
	if !receptive {
		s.logger.Debug("user not receptive", "reason", string(reason))
		s.sink.Record(analytics.EventEvaluationDeclined, map[string]any{"reason": string(reason)})
		s.backToIdle()
		return
	}

	nudgeType := selectType(snap.Profile, snap.Behavior)
	framework := models.FrameworkFor[nudgeType]
	content := s.generator.Generate(ctx, &generation.Request{
		Type:      nudgeType,
		Framework: framework,
		Profile:   snap.Profile,
		Behavior:  snap.Behavior,
	})

	n := &models.Nudge{
		ID:              uuid.New().String(),
		Content:         content,
		Type:            nudgeType,
		Framework:       framework,
		DeliveryContext: deliveryContext(snap, reason),
		GeneratedAt:     now.Unix(),
	}
	s.deliver(n)
}

func (s *Scheduler) deliver(n *models.Nudge) {
	now := time.Now()
	deliveredAt := now.Unix()
	n.DeliveredAt = &deliveredAt

	s.mu.Lock()
	if s.st != models.StateEvaluating {
		s.mu.Unlock()
		return
	}
	// A stop that raced the evaluation wins: no delivery, no fresh timer.
	if s.stopped {
		s.setStateLocked(models.StateIdle)
		s.mu.Unlock()
		return
	}
	s.current = n
	s.lastDelivery = now
	s.generation++
	gen := s.generation
	s.displayTimer = time.AfterFunc(s.opts.DisplayTimeout, func() { s.expire(gen) })
	s.setStateLocked(models.StateDelivered)
	s.mu.Unlock()

	if err := s.states.SetLastNudgeDelivery(deliveredAt); err != nil {
		s.logger.Error("persist last delivery time", "error", err)
	}
	s.logger.Info("nudge delivered",
		"nudgeId", n.ID, "nudgeType", string(n.Type), "framework", string(n.Framework))
	s.sink.Record(analytics.EventNudgeDelivered, map[string]any{
		"nudge_id":   n.ID,
		"nudge_type": string(n.Type),
		"framework":  string(n.Framework),
	})
}

func (s *Scheduler) resolve(resp models.NudgeResponse, terminal models.SchedulerState, event string) bool {
	s.mu.Lock()
	n := s.terminateLocked(resp, terminal)
	s.mu.Unlock()
	if n == nil {
		return false
	}
	s.archive(n, event)
	return true
}

// expire is the display-timeout callback. The generation check makes a timer
// that lost the cancellation race a no-op.
func (s *Scheduler) expire(gen uint64) {
	s.mu.Lock()
	var n *models.Nudge
	if gen == s.generation {
		n = s.terminateLocked(models.ResponseTimeout, models.StateTimedOut)
	}
	s.mu.Unlock()
	if n == nil {
		return
	}
	s.archive(n, analytics.EventNudgeTimeout)
}

// terminateLocked moves Delivered to a terminal state and schedules the
// settle back to Idle. Caller holds mu. Returns nil when the transition is
// not legal, which callers treat as a no-op.
func (s *Scheduler) terminateLocked(resp models.NudgeResponse, terminal models.SchedulerState) *models.Nudge {
	if s.st != models.StateDelivered || s.current == nil || s.current.Response != nil {
		return nil
	}
	if s.displayTimer != nil {
		s.displayTimer.Stop()
		s.displayTimer = nil
	}

	now := time.Now().Unix()
	r := resp
	s.current.Response = &r
	s.current.ResponseTimestamp = &now
	s.setStateLocked(terminal)

	gen := s.generation
	s.settleTimer = time.AfterFunc(s.opts.SettleDelay, func() { s.settle(gen) })
	return s.current
}

// settle clears a terminal state back to Idle once the UI has had time to
// animate the card out.
func (s *Scheduler) settle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	switch s.st {
	case models.StateAcknowledged, models.StateTimedOut, models.StateDismissed:
		s.current = nil
		s.settleTimer = nil
		s.setStateLocked(models.StateIdle)
	}
}

func (s *Scheduler) backToIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == models.StateEvaluating {
		s.setStateLocked(models.StateIdle)
	}
}

// setStateLocked records the transition and broadcasts it while still under
// the lock, so subscribers observe transitions in the order they happened.
func (s *Scheduler) setStateLocked(st models.SchedulerState) {
	s.st = st
	s.hub.Broadcast(s.stateLocked())
}

func (s *Scheduler) stateLocked() *models.NudgeStateResponse {
	resp := &models.NudgeStateResponse{
		State:   s.st,
		Visible: s.st == models.StateDelivered,
	}
	if s.current != nil {
		n := *s.current
		resp.Nudge = &n
	}
	return resp
}

func (s *Scheduler) archive(n *models.Nudge, event string) {
	if err := s.nudges.Insert(n); err != nil {
		s.logger.Error("archive nudge", "nudgeId", n.ID, "error", err)
	}

	payload := map[string]any{
		"nudge_id":   n.ID,
		"nudge_type": string(n.Type),
		"framework":  string(n.Framework),
	}
	if n.Response != nil {
		payload["response"] = string(*n.Response)
	}
	if n.DeliveredAt != nil && n.ResponseTimestamp != nil {
		payload["response_seconds"] = *n.ResponseTimestamp - *n.DeliveredAt
	}
	s.sink.Record(event, payload)
}

// selectType picks the intervention strategy, most specific rule first.
// emotionalGranularity has no selection rule yet; its copy still ships for
// the fallback and archive paths.
func selectType(p *models.PsychologicalProfile, b *models.RecentBehaviorAnalysis) models.NudgeType {
	for _, freq := range p.ReflectionPatterns {
		if freq > 0.6 {
			return models.NudgePatternInterruption
		}
	}
	if b.EngagementDepth > 0.7 && b.ReceptivityLevel > 0.7 {
		return models.NudgeGrowthOpportunity
	}
	if b.EngagementDepth > 0.5 {
		return models.NudgeValuesAlignment
	}
	return models.NudgeGratitudeStrengths
}

// deliveryContext captures why this nudge happened, for the archive and for
// richer UI presentation.
func deliveryContext(snap *profile.Snapshot, reason receptivity.Reason) map[string]string {
	ctx := map[string]string{
		"chapter":        snap.Profile.NarrativeChapter,
		"emotionalState": snap.Behavior.EmotionalState,
		"reason":         string(reason),
	}
	if len(snap.Profile.GrowthOpportunities) > 0 {
		ctx["topConcept"] = snap.Profile.GrowthOpportunities[0]
	}
	return ctx
}
