// Package profile assembles point-in-time psychological snapshots from the
// raw engagement log. Snapshots are always rebuilt from events; the LRU cache
// only short-circuits rebuilds while the log has not changed.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
	"github.com/andrewbaggio1/sthealth-core/internal/significance"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

const (
	// profileWindow bounds reflection-pattern frequencies to the last week.
	profileWindow = 7 * 24 * time.Hour

	// depthWindow bounds the behavior analysis to the last three days.
	depthWindow = 3 * 24 * time.Hour

	snapshotCacheSize = 64

	maxGrowthOpportunities = 5

	// Neutral defaults for a fresh account with no events yet.
	neutralDepth       = 0.5
	neutralReceptivity = 0.5
	defaultChapter     = "beginnings"

	// optimalHourMinEvents: evidence needed before an hour counts as optimal.
	optimalHourMinEvents = 2
)

// chapterFor names the narrative chapter after the context the user spends
// the most time in.
var chapterFor = map[models.EngagementContext]string{
	models.ContextReflection: "inward-turn",
	models.ContextWorkshop:   "active-practice",
	models.ContextAtlas:      "mapping-the-terrain",
	models.ContextCards:      "gathering-insights",
	models.ContextProfile:    "self-study",
	models.ContextOnboarding: "threshold",
}

// Snapshot pairs the two views the scheduler evaluates against.
type Snapshot struct {
	Profile  *models.PsychologicalProfile
	Behavior *models.RecentBehaviorAnalysis
}

// Builder derives snapshots from the event store.
type Builder struct {
	events *store.EventStore
	cache  *lru.Cache[string, *Snapshot]
	logger *slog.Logger
}

func NewBuilder(events *store.EventStore, logger *slog.Logger) (*Builder, error) {
	cache, err := lru.New[string, *Snapshot](snapshotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	return &Builder{
		events: events,
		cache:  cache,
		logger: logger,
	}, nil
}

// Snapshot builds the profile and behavior views for the given instant. The
// cache key folds in the log stats and a one-minute time bucket, so repeated
// evaluations against an unchanged log reuse the previous build.
func (b *Builder) Snapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	count, lastTS, err := b.events.Stats()
	if err != nil {
		return nil, fmt.Errorf("snapshot stats: %w", err)
	}

	key := strconv.Itoa(count) + ":" + strconv.FormatInt(lastTS, 10) + ":" + strconv.FormatInt(now.Unix()/60, 10)
	if snap, ok := b.cache.Get(key); ok {
		return snap, nil
	}

	events, err := b.events.All()
	if err != nil {
		return nil, fmt.Errorf("snapshot events: %w", err)
	}

	// The two views are independent; build them concurrently.
	snap := &Snapshot{}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Profile = BuildProfile(events, now)
		return nil
	})
	g.Go(func() error {
		snap.Behavior = BuildBehavior(events, now)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.cache.Add(key, snap)
	return snap, nil
}

// Invalidate drops all cached snapshots. Called on account reset.
func (b *Builder) Invalidate() {
	b.cache.Purge()
}

// BuildProfile derives the psychological profile from the event log. Pure
// over its inputs; all day and hour bucketing is in UTC.
func BuildProfile(events []*models.EngagementEvent, now time.Time) *models.PsychologicalProfile {
	p := &models.PsychologicalProfile{
		ReflectionPatterns: map[string]float64{},
		NarrativeChapter:   defaultChapter,
	}

	windowStart := now.Add(-profileWindow).Unix()
	var windowed []*models.EngagementEvent
	for _, e := range events {
		if e.Timestamp >= windowStart {
			windowed = append(windowed, e)
		}
	}

	// Relative concept frequency over the window; sums to 1.0 when any
	// events exist.
	if len(windowed) > 0 {
		for _, e := range windowed {
			p.ReflectionPatterns[significance.ConceptOf(e.ItemIdentifier)] += 1.0
		}
		total := float64(len(windowed))
		for c := range p.ReflectionPatterns {
			p.ReflectionPatterns[c] /= total
		}
	}

	scores := significance.TopConcepts(events, 0)
	p.GrowthOpportunities = growthOpportunities(scores)
	p.Strengths = strengths(scores)
	p.AvoidanceAreas = avoidanceAreas(scores)
	p.OptimalReceptivityHours = optimalHours(events)

	if chapter := dominantChapter(events); chapter != "" {
		p.NarrativeChapter = chapter
	}
	return p
}

// BuildBehavior derives the recent-behavior view from the event log. With no
// events every field takes its neutral default.
func BuildBehavior(events []*models.EngagementEvent, now time.Time) *models.RecentBehaviorAnalysis {
	b := &models.RecentBehaviorAnalysis{
		EngagementDepth:  neutralDepth,
		ReceptivityLevel: neutralReceptivity,
	}

	var (
		recentDur, recentInt float64
		recentCount          int
		lastEventTS          int64
		dayDur               float64
	)
	depthStart := now.Add(-depthWindow).Unix()
	dayStart := now.Add(-24 * time.Hour).Unix()

	for _, e := range events {
		if e.Timestamp > lastEventTS {
			lastEventTS = e.Timestamp
		}
		if e.Timestamp >= depthStart {
			recentDur += e.Duration
			recentInt += e.Intensity
			recentCount++
		}
		if e.Timestamp >= dayStart {
			dayDur += e.Duration
		}
	}

	if recentCount > 0 {
		meanIntensity := recentInt / float64(recentCount)
		meanDuration := recentDur / float64(recentCount)
		b.EngagementDepth = clamp01(0.5*meanIntensity + 0.5*clamp01(meanDuration/180.0))
	}
	if lastEventTS > 0 {
		hoursSince := now.Sub(time.Unix(lastEventTS, 0)).Hours()
		b.ReceptivityLevel = clamp01(1.0 - hoursSince/12.0)
	}
	b.TimeInAppMinutes = dayDur / 60.0
	b.LastReflectionSentiment = lastSentiment(events)
	b.EmotionalState = emotionalState(b.LastReflectionSentiment)
	return b
}

// growthOpportunities ranks what the user is actively wrestling with: the
// most significant concepts overall.
func growthOpportunities(scores []*models.SignificanceScore) []string {
	var out []string
	for _, s := range scores {
		if s.OverallSignificance <= 0 {
			break
		}
		out = append(out, s.Concept)
		if len(out) == maxGrowthOpportunities {
			break
		}
	}
	return out
}

// strengths are concepts the user returns to steadily, day after day.
func strengths(scores []*models.SignificanceScore) []string {
	ranked := make([]*models.SignificanceScore, 0, len(scores))
	for _, s := range scores {
		if s.ConsistencyScore >= 0.5 {
			ranked = append(ranked, s)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].ConsistencyScore != ranked[j].ConsistencyScore {
			return ranked[i].ConsistencyScore > ranked[j].ConsistencyScore
		}
		return ranked[i].Concept < ranked[j].Concept
	})
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Concept
	}
	return out
}

// avoidanceAreas are concepts the user keeps flinching away from.
func avoidanceAreas(scores []*models.SignificanceScore) []string {
	ranked := make([]*models.SignificanceScore, 0, len(scores))
	for _, s := range scores {
		if s.AvoidanceScore > 0 {
			ranked = append(ranked, s)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AvoidanceScore != ranked[j].AvoidanceScore {
			return ranked[i].AvoidanceScore > ranked[j].AvoidanceScore
		}
		return ranked[i].Concept < ranked[j].Concept
	})
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Concept
	}
	return out
}

// optimalHours ranks UTC hours of day by total engagement time and keeps the
// top three that have enough evidence behind them.
func optimalHours(events []*models.EngagementEvent) []int {
	type hourStat struct {
		hour  int
		dur   float64
		count int
	}
	byHour := map[int]*hourStat{}
	for _, e := range events {
		h := time.Unix(e.Timestamp, 0).UTC().Hour()
		st, ok := byHour[h]
		if !ok {
			st = &hourStat{hour: h}
			byHour[h] = st
		}
		st.dur += e.Duration
		st.count++
	}

	stats := make([]*hourStat, 0, len(byHour))
	for _, st := range byHour {
		if st.count >= optimalHourMinEvents {
			stats = append(stats, st)
		}
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].dur != stats[j].dur {
			return stats[i].dur > stats[j].dur
		}
		return stats[i].hour < stats[j].hour
	})

	var hours []int
	for i, st := range stats {
		if i == 3 {
			break
		}
		hours = append(hours, st.hour)
	}
	sort.Ints(hours)
	return hours
}

func dominantChapter(events []*models.EngagementEvent) string {
	byContext := map[models.EngagementContext]float64{}
	for _, e := range events {
		byContext[e.Context] += e.Duration
	}

	var best models.EngagementContext
	var bestDur float64
	for ctx, dur := range byContext {
		if dur > bestDur || (dur == bestDur && ctx < best) {
			best, bestDur = ctx, dur
		}
	}
	if bestDur == 0 {
		return ""
	}
	return chapterFor[best]
}

// lastSentiment reads the most recent reflection event carrying a sentiment
// annotation, clamped to [-1, 1]. Zero when none exists.
func lastSentiment(events []*models.EngagementEvent) float64 {
	var bestTS int64
	var sentiment float64
	for _, e := range events {
		if e.Context != models.ContextReflection || e.Timestamp < bestTS {
			continue
		}
		raw, ok := e.Metadata[models.MetadataSentimentKey]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		bestTS = e.Timestamp
		sentiment = clampRange(v, -1.0, 1.0)
	}
	return sentiment
}

func emotionalState(sentiment float64) string {
	switch {
	case sentiment < -0.3:
		return "strained"
	case sentiment > 0.3:
		return "buoyant"
	default:
		return "settled"
	}
}

func clamp01(v float64) float64 {
	return clampRange(v, 0.0, 1.0)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
