package generation

import (
	"context"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

// fallbackContent is the fixed copy used whenever generation fails or is not
// configured. Keyed only by nudge type so delivery stays deterministic.
var fallbackContent = map[models.NudgeType]string{
	models.NudgePatternInterruption:  "Pause for a breath. Notice the loop you're in and ask what it's protecting you from.",
	models.NudgeValuesAlignment:      "Take a moment to check in: does what you're doing right now line up with what matters most to you?",
	models.NudgeEmotionalGranularity: "Try naming what you're feeling in one precise word. Specificity softens intensity.",
	models.NudgeGrowthOpportunity:    "You've been circling something important. What's one small step you could take toward it today?",
	models.NudgeGratitudeStrengths:   "Think of one thing that went well recently and the strength of yours that made it happen.",
}

// FallbackContent returns the static copy for a nudge type. Unknown types get
// the gratitude line, the safest register to land in unprompted.
func FallbackContent(t models.NudgeType) string {
	if c, ok := fallbackContent[t]; ok {
		return c
	}
	return fallbackContent[models.NudgeGratitudeStrengths]
}

// Static is the no-LLM Generator: it serves the fallback copy directly.
type Static struct{}

func (Static) Generate(_ context.Context, req *Request) (string, error) {
	return FallbackContent(req.Type), nil
}
