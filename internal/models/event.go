package models

// EngagementEvent is an immutable record of one user interaction with an
// item somewhere in the app. Events are append-only; the only way one is
// ever removed is a full account reset.
type EngagementEvent struct {
	ID              string            `json:"id"`
	Timestamp       int64             `json:"timestamp"`
	Context         EngagementContext `json:"context"`
	ItemIdentifier  string            `json:"itemIdentifier"`
	InteractionType InteractionType   `json:"interactionType"`
	Duration        float64           `json:"duration"`
	Intensity       float64           `json:"intensity"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// EngagementContext identifies which surface of the app an event came from.
type EngagementContext string

const (
	ContextReflection EngagementContext = "reflection"
	ContextWorkshop   EngagementContext = "workshop"
	ContextAtlas      EngagementContext = "atlas"
	ContextCards      EngagementContext = "cards"
	ContextProfile    EngagementContext = "profile"
	ContextOnboarding EngagementContext = "onboarding"
)

var ValidContexts = map[EngagementContext]bool{
	ContextReflection: true,
	ContextWorkshop:   true,
	ContextAtlas:      true,
	ContextCards:      true,
	ContextProfile:    true,
	ContextOnboarding: true,
}

func (c EngagementContext) IsValid() bool {
	return ValidContexts[c]
}

// InteractionType classifies how the user engaged with the item.
type InteractionType string

const (
	InteractionView       InteractionType = "view"
	InteractionFocus      InteractionType = "focus"
	InteractionExplore    InteractionType = "explore"
	InteractionHesitate   InteractionType = "hesitate"
	InteractionReconsider InteractionType = "reconsider"
	InteractionAbandon    InteractionType = "abandon"
	InteractionComplete   InteractionType = "complete"
	InteractionRevisit    InteractionType = "revisit"
)

var ValidInteractionTypes = map[InteractionType]bool{
	InteractionView:       true,
	InteractionFocus:      true,
	InteractionExplore:    true,
	InteractionHesitate:   true,
	InteractionReconsider: true,
	InteractionAbandon:    true,
	InteractionComplete:   true,
	InteractionRevisit:    true,
}

func (t InteractionType) IsValid() bool {
	return ValidInteractionTypes[t]
}

// MetadataSentimentKey is the optional metadata entry carrying the sentiment
// of a reflection, written by the capture flow as a float in [-1, 1].
const MetadataSentimentKey = "sentiment"
