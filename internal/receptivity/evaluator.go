// Package receptivity decides whether this is a humane moment to interrupt
// the user. The whole package is pure: same inputs, same answer, no clocks,
// no stores, no side effects.
package receptivity

import (
	"time"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

const (
	// crisisSentiment: below this the user may be in acute distress and a
	// nudge is never appropriate, whatever the other signals say.
	crisisSentiment = -0.7

	// minEngagementDepth: below this the user is barely present and a nudge
	// would land as noise.
	minEngagementDepth = 0.3

	// receptiveLevel: above this the user is open to input regardless of
	// the hour.
	receptiveLevel = 0.6
)

// Reason explains an Evaluate outcome, mainly for logs and telemetry.
type Reason string

const (
	ReasonCrisisVeto      Reason = "crisis_veto"
	ReasonLowEngagement   Reason = "low_engagement"
	ReasonHighReceptivity Reason = "high_receptivity"
	ReasonOptimalWindow   Reason = "optimal_window"
	ReasonNotReceptive    Reason = "not_receptive"
)

// Evaluate applies the receptivity rules in order. The two vetoes are
// checked first and always win; only then do the positive signals count.
func Evaluate(profile *models.PsychologicalProfile, behavior *models.RecentBehaviorAnalysis, now time.Time) (bool, Reason) {
	if behavior.LastReflectionSentiment < crisisSentiment {
		return false, ReasonCrisisVeto
	}
	if behavior.EngagementDepth < minEngagementDepth {
		return false, ReasonLowEngagement
	}

	if behavior.ReceptivityLevel > receptiveLevel {
		return true, ReasonHighReceptivity
	}
	hour := now.Hour()
	for _, h := range profile.OptimalReceptivityHours {
		if h == hour {
			return true, ReasonOptimalWindow
		}
	}
	return false, ReasonNotReceptive
}
