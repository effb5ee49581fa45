package domain

// Urgency is a coarse urgency bucket derived from classification.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// CoerceUrgency maps an arbitrary string to a valid Urgency, defaulting to medium.
func CoerceUrgency(s string) Urgency {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return Urgency(s)
	default:
		return UrgencyMedium
	}
}

// Routing describes the downstream action endpoint associated with an intent.
// The endpoints themselves are external collaborators; only this metadata
// contract is carried here.
type Routing struct {
	Endpoint         string `json:"endpoint"`
	Method           string `json:"method"`
	EstimatedLatency int    `json:"estimated_latency_ms"`
}

// ClassificationResult is the outcome of the classification stage for one
// request. It is immutable after creation: a stage either returns a complete
// result or fails in a way that triggers the heuristic fallback.
type ClassificationResult struct {
	Intent           string   `json:"intent"`
	Confidence       float64  `json:"confidence"`
	SubCategory      string   `json:"sub_category,omitempty"`
	Urgency          Urgency  `json:"urgency"`
	SuggestedActions []string `json:"suggested_actions"`
	RequiredData     []string `json:"required_data"`
	Routing          Routing  `json:"routing"`
	IsFallback       bool     `json:"is_fallback"`
	Rationale        string   `json:"rationale,omitempty"`
}

// ClampConfidence bounds a confidence value to [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RequestContext carries optional conversational context supplied with a
// pipeline request.
type RequestContext struct {
	ThreadHistory []string `json:"thread_history,omitempty"`
	UserProfile   *Profile `json:"user_profile,omitempty"`
	RecentActions []string `json:"recent_actions,omitempty"`
}

// Profile holds the user/contact hints the drafting stage personalizes with.
type Profile struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	PreferredTone string `json:"preferred_tone,omitempty"`
	Signature     string `json:"signature,omitempty"`
}
