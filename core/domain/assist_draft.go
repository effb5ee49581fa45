package domain

// DraftCandidate is one generated reply draft. Confidence is computed
// locally from contextual completeness, never trusted from the external
// generative capability.
type DraftCandidate struct {
	Subject    string  `json:"subject"`
	Body       string  `json:"body"`
	Signoff    string  `json:"signoff"`
	Tone       string  `json:"tone"`
	Confidence float64 `json:"confidence"`
	WordCount  int     `json:"word_count"`
}

// DraftSet holds the primary draft plus up to two alternative tone variants.
// Alternatives are best-effort: a failed alternative is omitted, never an
// error for the whole request.
type DraftSet struct {
	Primary      DraftCandidate   `json:"primary"`
	Alternatives []DraftCandidate `json:"alternatives"`
	ModelUsed    string           `json:"model_used"`
	DurationMs   int64            `json:"duration_ms"`
}

// TimeSlot is a calendar slot proposed to the drafting stage.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label,omitempty"`
}
