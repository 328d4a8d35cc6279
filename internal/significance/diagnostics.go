package significance

import (
	"time"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

// DefaultSpikeThreshold is the multiplier at which recent engagement counts
// as a spike.
const DefaultSpikeThreshold = 2.0

// divergenceRatio: exploratory time must exceed reflective time by this
// factor before it counts as divergence.
const divergenceRatio = 1.5

const spikeWindow = 3 * 24 * time.Hour

// HasAttentionDivergence reports whether the user is spending notably more
// time exploring derived material (workshop, atlas) than on the reflections
// it came from. Strict comparison: zero activity on both sides is not
// divergence.
func HasAttentionDivergence(events []*models.EngagementEvent) bool {
	var exploratory, reflective float64
	for _, e := range events {
		switch e.Context {
		case models.ContextWorkshop, models.ContextAtlas:
			exploratory += e.Duration
		case models.ContextReflection:
			reflective += e.Duration
		}
	}
	return exploratory > divergenceRatio*reflective
}

// HasContradictoryEvidence reports whether behavior contradicts the stated
// reflections. Stands in for deeper content-versus-behavior analysis and
// currently mirrors attention divergence.
func HasContradictoryEvidence(events []*models.EngagementEvent) bool {
	return HasAttentionDivergence(events)
}

// HasEngagementSpike reports whether mean event duration over the last three
// days exceeds threshold times the all-time mean. Strictly greater: an exact
// multiple is not a spike.
func HasEngagementSpike(events []*models.EngagementEvent, threshold float64, now time.Time) bool {
	if len(events) == 0 {
		return false
	}

	cutoff := now.Add(-spikeWindow).Unix()
	var allSum, recentSum float64
	var recentCount int
	for _, e := range events {
		allSum += e.Duration
		if e.Timestamp >= cutoff {
			recentSum += e.Duration
			recentCount++
		}
	}
	if recentCount == 0 {
		return false
	}

	allMean := allSum / float64(len(events))
	recentMean := recentSum / float64(recentCount)
	return recentMean > threshold*allMean
}
