package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

// Request carries everything the prompt is built from. Only concept names and
// aggregate signals leave the device; reflection content never does.
type Request struct {
	Type      models.NudgeType
	Framework models.TherapeuticFramework
	Profile   *models.PsychologicalProfile
	Behavior  *models.RecentBehaviorAnalysis
}

// Generator produces nudge copy. Implementations may fail; the Service
// wrapper never does.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

// Service wraps a provider with a bounded timeout and the static fallback.
// Generate always returns usable copy: a provider error, a timeout, or empty
// output all degrade to the fixed per-type fallback line.
type Service struct {
	provider Generator
	timeout  time.Duration
	logger   *slog.Logger
}

// NewService builds the generation service. A nil provider means static copy
// only, which is the correct mode when no LLM is configured.
func NewService(provider Generator, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Generate returns nudge copy for the request. Never fails, never empty.
func (s *Service) Generate(ctx context.Context, req *Request) string {
	if s.provider == nil {
		return FallbackContent(req.Type)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.provider.Generate(ctx, req)
	if err != nil {
		s.logger.Warn("nudge generation failed, using fallback copy",
			"nudgeType", string(req.Type), "error", err)
		return FallbackContent(req.Type)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Warn("nudge generation returned empty output, using fallback copy",
			"nudgeType", string(req.Type))
		return FallbackContent(req.Type)
	}
	return text
}

const nudgePrompt = `You write nudges for a personal reflection app. A nudge is a single short
sentence, warm and non-clinical, that invites the user to notice something
about themselves. Never diagnose, never instruct, never mention the app.

Write one %s nudge in the spirit of %s.

## Signals
Narrative chapter: %s
Emotional state: %s
Themes the user keeps returning to: %s

Respond with the nudge sentence only.`

// buildPrompt renders the shared prompt for every provider.
func buildPrompt(req *Request) string {
	themes := "none yet"
	if len(req.Profile.GrowthOpportunities) > 0 {
		themes = strings.Join(req.Profile.GrowthOpportunities, ", ")
	}
	return fmt.Sprintf(nudgePrompt,
		string(req.Type),
		string(req.Framework),
		req.Profile.NarrativeChapter,
		req.Behavior.EmotionalState,
		themes,
	)
}
