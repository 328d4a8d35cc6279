package significance

import (
	"sort"
	"strings"
	"time"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

// Factor weights of the four-factor significance model. They sum to 1.0 so
// the overall score stays in [0, 1].
const (
	attentionWeight   = 0.4
	emotionalWeight   = 0.3
	consistencyWeight = 0.2
	avoidanceWeight   = 0.1
)

// Saturation points: the event mass at which each factor reaches 1.0.
const (
	attentionSaturationSeconds = 300.0
	emotionalSaturationCount   = 3.0
	consistencySaturationDays  = 7.0
	avoidanceSaturationCount   = 3.0

	// An abandon shorter than this reads as flinching away, not disinterest.
	quickAbandonSeconds = 5.0
)

// conceptPrefixes are item-identifier namespaces; stripping them yields the
// underlying concept, so hypothesis_work and neural_pathway_work aggregate
// into one "work" score.
var conceptPrefixes = []string{"hypothesis_", "neural_pathway_", "workshop_tool_"}

// ConceptOf extracts the concept from an item identifier. Identifiers with no
// known prefix are concepts themselves.
func ConceptOf(itemIdentifier string) string {
	for _, p := range conceptPrefixes {
		if strings.HasPrefix(itemIdentifier, p) {
			return strings.TrimPrefix(itemIdentifier, p)
		}
	}
	return itemIdentifier
}

// ScoreConcept computes the significance of one concept from an event list.
// Events for other concepts are ignored, so callers may pass the full log.
// Pure and order-independent: permuting the input never changes the result.
func ScoreConcept(concept string, events []*models.EngagementEvent) *models.SignificanceScore {
	var group []*models.EngagementEvent
	for _, e := range events {
		if ConceptOf(e.ItemIdentifier) == concept {
			group = append(group, e)
		}
	}
	return scoreGroup(concept, group)
}

func scoreGroup(concept string, events []*models.EngagementEvent) *models.SignificanceScore {
	var (
		totalDuration  float64
		intensitySum   float64
		emotionalCount int
		avoidanceCount int
		lastEventAt    int64
	)
	days := map[string]bool{}

	for _, e := range events {
		totalDuration += e.Duration
		intensitySum += e.Intensity
		days[dayOf(e.Timestamp)] = true

		switch e.InteractionType {
		case models.InteractionHesitate, models.InteractionReconsider:
			emotionalCount++
		case models.InteractionAbandon:
			if e.Duration < quickAbandonSeconds {
				avoidanceCount++
			}
		}
		if e.Timestamp > lastEventAt {
			lastEventAt = e.Timestamp
		}
	}

	meanIntensity := 0.0
	if len(events) > 0 {
		meanIntensity = intensitySum / float64(len(events))
	}

	attention := clamp01(min1(totalDuration/attentionSaturationSeconds) * meanIntensity)
	emotional := clamp01(float64(emotionalCount) / emotionalSaturationCount)
	consistency := clamp01(float64(len(days)) / consistencySaturationDays)
	avoidance := clamp01(float64(avoidanceCount) / avoidanceSaturationCount)

	return &models.SignificanceScore{
		Concept:            concept,
		AttentionScore:     attention,
		EmotionalIntensity: emotional,
		ConsistencyScore:   consistency,
		AvoidanceScore:     avoidance,
		OverallSignificance: attentionWeight*attention +
			emotionalWeight*emotional +
			consistencyWeight*consistency +
			avoidanceWeight*avoidance,
		LastEventAt: lastEventAt,
	}
}

// TopConcepts scores every concept present in the event list and returns them
// ordered by overall significance, most recent event breaking ties. A limit
// of 0 or less returns all concepts.
func TopConcepts(events []*models.EngagementEvent, limit int) []*models.SignificanceScore {
	groups := map[string][]*models.EngagementEvent{}
	for _, e := range events {
		c := ConceptOf(e.ItemIdentifier)
		groups[c] = append(groups[c], e)
	}

	scores := make([]*models.SignificanceScore, 0, len(groups))
	for concept, group := range groups {
		scores = append(scores, scoreGroup(concept, group))
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].OverallSignificance != scores[j].OverallSignificance {
			return scores[i].OverallSignificance > scores[j].OverallSignificance
		}
		if scores[i].LastEventAt != scores[j].LastEventAt {
			return scores[i].LastEventAt > scores[j].LastEventAt
		}
		return scores[i].Concept < scores[j].Concept
	})

	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

// dayOf buckets a unix timestamp into a UTC calendar day. UTC keeps day
// counting stable regardless of the host timezone.
func dayOf(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
