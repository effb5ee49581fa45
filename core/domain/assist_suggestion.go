package domain

// Suggestion kinds. Cross-module kinds hand the conversation off to a
// sibling module via a HandoffPayload.
const (
	SuggestionReply        = "reply"
	SuggestionSchedule     = "schedule"
	SuggestionSaveTemplate = "save_template"
	SuggestionHandoff      = "handoff"
)

// ActionSuggestion is one ranked next-action proposal. Suggestions are
// ordered by (priority desc, confidence desc).
type ActionSuggestion struct {
	ID                string  `json:"id"`
	Intent            string  `json:"intent"`
	Kind              string  `json:"kind"`
	Label             string  `json:"label"`
	Icon              string  `json:"icon,omitempty"`
	Priority          int     `json:"priority"` // 0..100
	Confidence        float64 `json:"confidence"`
	Rationale         string  `json:"rationale"`
	SideEffectPayload string  `json:"side_effect_payload,omitempty"`
}

// HandoffPayload is the sole contract surface exposed to a receiving sibling
// module. Notes are capped at 280 characters before serialization.
type HandoffPayload struct {
	Module   string            `json:"module"`
	Intent   string            `json:"intent"`
	Entities map[string]string `json:"entities"`
	Notes    string            `json:"notes"`
}

// SuggestionSet exposes both the full ranked ordering and the capped
// presentation view. Callers that need completeness (ranking tests, audit)
// read All; interactive surfaces read Top.
type SuggestionSet struct {
	All []ActionSuggestion `json:"all"`
	Top []ActionSuggestion `json:"top"`
}
