package significance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

func ctxEv(ctx models.EngagementContext, duration float64, ts int64) *models.EngagementEvent {
	e := ev("topic", models.InteractionView, duration, 0.5, ts)
	e.Context = ctx
	return e
}

func TestHasAttentionDivergence(t *testing.T) {
	t.Run("true when exploratory time clears the ratio", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ctxEv(models.ContextWorkshop, 100, day1),
			ctxEv(models.ContextAtlas, 60, day1),
			ctxEv(models.ContextReflection, 100, day1),
		}
		assert.True(t, HasAttentionDivergence(events))
	})

	t.Run("false at exactly the ratio", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ctxEv(models.ContextWorkshop, 150, day1),
			ctxEv(models.ContextReflection, 100, day1),
		}
		assert.False(t, HasAttentionDivergence(events))
	})

	t.Run("false with no activity on either side", func(t *testing.T) {
		assert.False(t, HasAttentionDivergence(nil))
		events := []*models.EngagementEvent{
			ctxEv(models.ContextCards, 500, day1),
			ctxEv(models.ContextProfile, 500, day1),
		}
		assert.False(t, HasAttentionDivergence(events))
	})

	t.Run("contradictory evidence mirrors divergence", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ctxEv(models.ContextAtlas, 200, day1),
			ctxEv(models.ContextReflection, 10, day1),
		}
		assert.Equal(t, HasAttentionDivergence(events), HasContradictoryEvidence(events))
		assert.True(t, HasContradictoryEvidence(events))
	})
}

func TestHasEngagementSpike(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-24 * time.Hour).Unix()
	old := now.Add(-5 * 24 * time.Hour).Unix()

	t.Run("true when recent mean clears the threshold", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ctxEv(models.ContextReflection, 10, old),
			ctxEv(models.ContextReflection, 10, old),
			ctxEv(models.ContextReflection, 10, old),
			ctxEv(models.ContextReflection, 10, old),
			ctxEv(models.ContextReflection, 100, recent),
			ctxEv(models.ContextReflection, 100, recent),
		}
		// all-time mean 40, recent mean 100, ratio 2.5
		assert.True(t, HasEngagementSpike(events, 2.0, now))
	})

	t.Run("false when the ratio is exactly the threshold", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ctxEv(models.ContextReflection, 0, old),
			ctxEv(models.ContextReflection, 0, old),
			ctxEv(models.ContextReflection, 100, recent),
			ctxEv(models.ContextReflection, 100, recent),
		}
		// all-time mean 50, recent mean 100, ratio exactly 2.0
		assert.False(t, HasEngagementSpike(events, 2.0, now))
	})

	t.Run("false with no recent events", func(t *testing.T) {
		events := []*models.EngagementEvent{
			ctxEv(models.ContextReflection, 10, old),
		}
		assert.False(t, HasEngagementSpike(events, 2.0, now))
	})

	t.Run("false with no events at all", func(t *testing.T) {
		assert.False(t, HasEngagementSpike(nil, 2.0, now))
	})
}
