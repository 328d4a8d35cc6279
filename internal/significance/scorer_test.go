package significance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

var day1 = time.Date(2026, 8, 10, 10, 0, 0, 0, time.UTC).Unix()

func ev(item string, it models.InteractionType, duration, intensity float64, ts int64) *models.EngagementEvent {
	return &models.EngagementEvent{
		ID:              uuid.New().String(),
		Timestamp:       ts,
		Context:         models.ContextReflection,
		ItemIdentifier:  item,
		InteractionType: it,
		Duration:        duration,
		Intensity:       intensity,
	}
}

func TestConceptOf(t *testing.T) {
	assert.Equal(t, "work", ConceptOf("hypothesis_work"))
	assert.Equal(t, "family", ConceptOf("neural_pathway_family"))
	assert.Equal(t, "breathing", ConceptOf("workshop_tool_breathing"))
	assert.Equal(t, "sleep", ConceptOf("sleep"))
	assert.Equal(t, "", ConceptOf(""))
}

func TestScoreConceptFactors(t *testing.T) {
	day2 := day1 + 24*3600
	day3 := day1 + 48*3600
	events := []*models.EngagementEvent{
		ev("hypothesis_work", models.InteractionView, 120, 0.6, day1),
		ev("hypothesis_work", models.InteractionHesitate, 90, 0.9, day1),
		ev("hypothesis_work", models.InteractionReconsider, 30, 0.5, day2),
		ev("hypothesis_work", models.InteractionAbandon, 3, 0.2, day2),  // quick abandon counts
		ev("hypothesis_work", models.InteractionAbandon, 10, 0.8, day3), // slow abandon does not
		ev("other_topic", models.InteractionFocus, 500, 1.0, day3),      // different concept, ignored
	}

	s := ScoreConcept("work", events)
	require.NotNil(t, s)
	assert.Equal(t, "work", s.Concept)

	// totalDuration 253s, meanIntensity 0.6 over the five work events.
	assert.InDelta(t, (253.0/300.0)*0.6, s.AttentionScore, 1e-12)
	assert.InDelta(t, 2.0/3.0, s.EmotionalIntensity, 1e-12)
	assert.InDelta(t, 3.0/7.0, s.ConsistencyScore, 1e-12)
	assert.InDelta(t, 1.0/3.0, s.AvoidanceScore, 1e-12)
	assert.Equal(t, day3, s.LastEventAt)
}

// The overall score is exactly the documented weighted combination of the
// four factors, for any input.
func TestOverallIsWeightedSum(t *testing.T) {
	cases := map[string][]*models.EngagementEvent{
		"empty": nil,
		"single": {
			ev("work", models.InteractionView, 50, 0.4, day1),
		},
		"saturated": {
			ev("work", models.InteractionHesitate, 400, 1.0, day1),
			ev("work", models.InteractionHesitate, 400, 1.0, day1+24*3600),
			ev("work", models.InteractionReconsider, 400, 1.0, day1+48*3600),
			ev("work", models.InteractionReconsider, 400, 1.0, day1+72*3600),
			ev("work", models.InteractionAbandon, 1, 1.0, day1+96*3600),
			ev("work", models.InteractionAbandon, 1, 1.0, day1+120*3600),
			ev("work", models.InteractionAbandon, 1, 1.0, day1+144*3600),
			ev("work", models.InteractionAbandon, 1, 1.0, day1+168*3600),
		},
	}

	for name, events := range cases {
		t.Run(name, func(t *testing.T) {
			s := ScoreConcept("work", events)
			for _, f := range []float64{s.AttentionScore, s.EmotionalIntensity, s.ConsistencyScore, s.AvoidanceScore, s.OverallSignificance} {
				assert.GreaterOrEqual(t, f, 0.0)
				assert.LessOrEqual(t, f, 1.0)
			}
			want := 0.4*s.AttentionScore + 0.3*s.EmotionalIntensity + 0.2*s.ConsistencyScore + 0.1*s.AvoidanceScore
			assert.InDelta(t, want, s.OverallSignificance, 1e-12)
		})
	}
}

func TestScoreConceptNoEvents(t *testing.T) {
	s := ScoreConcept("anything", nil)
	require.NotNil(t, s)
	assert.Zero(t, s.AttentionScore)
	assert.Zero(t, s.EmotionalIntensity)
	assert.Zero(t, s.ConsistencyScore)
	assert.Zero(t, s.AvoidanceScore)
	assert.Zero(t, s.OverallSignificance)
}

func TestScoreConceptOrderIndependent(t *testing.T) {
	events := []*models.EngagementEvent{
		ev("work", models.InteractionView, 120, 0.6, day1),
		ev("work", models.InteractionHesitate, 90, 0.9, day1+3600),
		ev("work", models.InteractionAbandon, 2, 0.2, day1+7200),
		ev("work", models.InteractionReconsider, 30, 0.5, day1+24*3600),
	}
	reversed := make([]*models.EngagementEvent, len(events))
	for i, e := range events {
		reversed[len(events)-1-i] = e
	}

	assert.Equal(t, ScoreConcept("work", events), ScoreConcept("work", reversed))
}

// Identifiers with different prefixes fold into one concept score.
func TestScoreAggregatesAcrossPrefixes(t *testing.T) {
	events := []*models.EngagementEvent{
		ev("hypothesis_work", models.InteractionView, 100, 0.5, day1),
		ev("neural_pathway_work", models.InteractionView, 100, 0.5, day1),
		ev("work", models.InteractionView, 100, 0.5, day1),
	}
	s := ScoreConcept("work", events)
	assert.InDelta(t, 1.0*0.5, s.AttentionScore, 1e-12) // 300s saturates
}

func TestTopConcepts(t *testing.T) {
	t.Run("orders by overall significance descending", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ev("minor", models.InteractionView, 20, 0.2, day1),
			ev("major", models.InteractionHesitate, 280, 0.9, day1),
			ev("major", models.InteractionReconsider, 60, 0.8, day1+24*3600),
		}
		scores := TopConcepts(events, 0)
		require.Len(t, scores, 2)
		assert.Equal(t, "major", scores[0].Concept)
		assert.Equal(t, "minor", scores[1].Concept)
	})

	t.Run("breaks ties by most recent event", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ev("older", models.InteractionView, 100, 0.5, day1),
			ev("newer", models.InteractionView, 100, 0.5, day1+3600),
		}
		scores := TopConcepts(events, 0)
		require.Len(t, scores, 2)
		assert.Equal(t, scores[0].OverallSignificance, scores[1].OverallSignificance)
		assert.Equal(t, "newer", scores[0].Concept)
	})

	t.Run("limit truncates", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ev("a", models.InteractionView, 10, 0.5, day1),
			ev("b", models.InteractionView, 20, 0.5, day1),
			ev("c", models.InteractionView, 30, 0.5, day1),
		}
		assert.Len(t, TopConcepts(events, 2), 2)
	})

	t.Run("empty log yields no concepts", func(t *testing.T) {
		assert.Empty(t, TopConcepts(nil, 10))
	})
}
