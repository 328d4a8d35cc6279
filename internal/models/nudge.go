package models

// Nudge is a generated intervention owned by the scheduler until it reaches a
// terminal response, then archived to SQLite and the analytics backend.
type Nudge struct {
	ID                string               `json:"id"`
	Content           string               `json:"content"`
	Type              NudgeType            `json:"type"`
	Framework         TherapeuticFramework `json:"framework"`
	DeliveryContext   map[string]string    `json:"deliveryContext,omitempty"`
	GeneratedAt       int64                `json:"generatedAt"`
	DeliveredAt       *int64               `json:"deliveredAt,omitempty"`
	Response          *NudgeResponse       `json:"response,omitempty"`
	ResponseTimestamp *int64               `json:"responseTimestamp,omitempty"`
}

// NudgeType classifies the intervention strategy a nudge applies.
type NudgeType string

const (
	NudgePatternInterruption  NudgeType = "patternInterruption"
	NudgeValuesAlignment      NudgeType = "valuesAlignment"
	NudgeEmotionalGranularity NudgeType = "emotionalGranularity"
	NudgeGrowthOpportunity    NudgeType = "growthOpportunity"
	NudgeGratitudeStrengths   NudgeType = "gratitudeStrengths"
)

var ValidNudgeTypes = map[NudgeType]bool{
	NudgePatternInterruption:  true,
	NudgeValuesAlignment:      true,
	NudgeEmotionalGranularity: true,
	NudgeGrowthOpportunity:    true,
	NudgeGratitudeStrengths:   true,
}

func (t NudgeType) IsValid() bool {
	return ValidNudgeTypes[t]
}

// TherapeuticFramework names the psychological tradition a nudge draws on.
type TherapeuticFramework string

const (
	FrameworkCBT                TherapeuticFramework = "CBT"
	FrameworkACT                TherapeuticFramework = "ACT"
	FrameworkDBT                TherapeuticFramework = "DBT"
	FrameworkPositivePsychology TherapeuticFramework = "PositivePsychology"
)

// FrameworkFor maps each nudge type to the framework its content is framed in.
var FrameworkFor = map[NudgeType]TherapeuticFramework{
	NudgePatternInterruption:  FrameworkCBT,
	NudgeValuesAlignment:      FrameworkACT,
	NudgeEmotionalGranularity: FrameworkDBT,
	NudgeGrowthOpportunity:    FrameworkPositivePsychology,
	NudgeGratitudeStrengths:   FrameworkPositivePsychology,
}

// NudgeResponse records how a delivered nudge ended. A user dismissal is
// recorded as ignored; an expired display timer as timeout.
type NudgeResponse string

const (
	ResponseAcknowledged NudgeResponse = "acknowledged"
	ResponseIgnored      NudgeResponse = "ignored"
	ResponseTimeout      NudgeResponse = "timeout"
)

func (r NudgeResponse) IsValid() bool {
	return r == ResponseAcknowledged || r == ResponseIgnored || r == ResponseTimeout
}

// SchedulerState is the nudge lifecycle position. Evaluating and Delivered
// block new evaluation cycles; terminal states settle back to Idle after a
// short delay that exists only so the UI can animate the card out.
type SchedulerState string

const (
	StateIdle         SchedulerState = "idle"
	StateEvaluating   SchedulerState = "evaluating"
	StateDelivered    SchedulerState = "delivered"
	StateAcknowledged SchedulerState = "acknowledged"
	StateTimedOut     SchedulerState = "timedOut"
	StateDismissed    SchedulerState = "dismissed"
)
