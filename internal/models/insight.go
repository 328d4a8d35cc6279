package models

// SignificanceScore is the derived psychological weight of one concept.
// Scores are recomputed from the event log on demand and never stored as
// source of truth. All four factors are clamped to [0, 1].
type SignificanceScore struct {
	Concept             string  `json:"concept"`
	AttentionScore      float64 `json:"attentionScore"`
	EmotionalIntensity  float64 `json:"emotionalIntensity"`
	ConsistencyScore    float64 `json:"consistencyScore"`
	AvoidanceScore      float64 `json:"avoidanceScore"`
	OverallSignificance float64 `json:"overallSignificance"`

	// LastEventAt breaks ordering ties between equal overall scores.
	LastEventAt int64 `json:"lastEventAt"`
}

// PsychologicalProfile is a point-in-time picture of what the user is
// working through, rebuilt from the event log for each evaluation cycle.
type PsychologicalProfile struct {
	ReflectionPatterns      map[string]float64 `json:"reflectionPatterns"`
	GrowthOpportunities     []string           `json:"growthOpportunities"`
	Strengths               []string           `json:"strengths"`
	AvoidanceAreas          []string           `json:"avoidanceAreas"`
	OptimalReceptivityHours []int              `json:"optimalReceptivityHours"`
	NarrativeChapter        string             `json:"narrativeChapter"`
}

// RecentBehaviorAnalysis summarizes the user's current state from recent
// activity. With no events every field takes its neutral default so a fresh
// account still evaluates cleanly.
type RecentBehaviorAnalysis struct {
	LastReflectionSentiment float64 `json:"lastReflectionSentiment"`
	EngagementDepth         float64 `json:"engagementDepth"`
	ReceptivityLevel        float64 `json:"receptivityLevel"`
	TimeInAppMinutes        float64 `json:"timeInAppMinutes"`
	EmotionalState          string  `json:"emotionalState"`
}
