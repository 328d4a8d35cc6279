package models

// RecordEventRequest is the payload for POST /events. Timestamp is optional;
// zero means "now" at the recorder.
type RecordEventRequest struct {
	Timestamp       int64             `json:"timestamp,omitempty"`
	Context         EngagementContext `json:"context"`
	ItemIdentifier  string            `json:"itemIdentifier"`
	InteractionType InteractionType   `json:"interactionType"`
	Duration        float64           `json:"duration"`
	Intensity       float64           `json:"intensity"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// RecordEventResponse is returned from POST /events. Recording is accepted
// unconditionally; persistence happens off the request path.
type RecordEventResponse struct {
	ID       string `json:"id"`
	Accepted bool   `json:"accepted"`
}

// EventQuery filters reads of the event log. Zero fields match everything.
type EventQuery struct {
	Concept  string              `json:"concept,omitempty"`
	Contexts []EngagementContext `json:"contexts,omitempty"`
	Since    int64               `json:"since,omitempty"`
	Until    int64               `json:"until,omitempty"`
	Limit    int                 `json:"limit,omitempty"`
}

// EventsResponse is returned from GET /events.
type EventsResponse struct {
	Events []*EngagementEvent `json:"events"`
	Total  int                `json:"total"`
}

// NudgeStateResponse is returned from GET /nudges/current and streamed over
// GET /nudges/watch on every transition.
type NudgeStateResponse struct {
	State   SchedulerState `json:"state"`
	Visible bool           `json:"visible"`
	Nudge   *Nudge         `json:"nudge,omitempty"`
}

// ConceptsResponse is returned from GET /insights/concepts.
type ConceptsResponse struct {
	Concepts []*SignificanceScore `json:"concepts"`
	Total    int                  `json:"total"`
}

// ProfileResponse is returned from GET /insights/profile.
type ProfileResponse struct {
	Profile  *PsychologicalProfile   `json:"profile"`
	Behavior *RecentBehaviorAnalysis `json:"behavior"`
}

// DiagnosticsResponse is returned from GET /insights/diagnostics.
type DiagnosticsResponse struct {
	AttentionDivergence   bool `json:"attentionDivergence"`
	ContradictoryEvidence bool `json:"contradictoryEvidence"`
	EngagementSpike       bool `json:"engagementSpike"`
}

// NudgeListResponse is returned from GET /nudges.
type NudgeListResponse struct {
	Nudges []*Nudge `json:"nudges"`
	Total  int      `json:"total"`
}

// ResetResponse is returned from POST /events/reset.
type ResetResponse struct {
	Deleted int `json:"deleted"`
}

// ErrorResponse is the uniform error body for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status     string         `json:"status"`
	DB         ServiceCheck   `json:"db"`
	EventCount int            `json:"eventCount"`
	Scheduler  SchedulerState `json:"scheduler"`
}

// ServiceCheck reports one dependency's health.
type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
