package domain

// Sentiment is the overall tone of the source text.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// CoerceSentiment maps an arbitrary string to a valid Sentiment, defaulting
// to neutral.
func CoerceSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return Sentiment(s)
	default:
		return SentimentNeutral
	}
}

// Person is a participant mentioned in the text.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// DateTimeRef is a date/time mention found in the text.
type DateTimeRef struct {
	Text      string `json:"text"`
	ParsedISO string `json:"parsed_iso,omitempty"`
	Kind      string `json:"kind"` // absolute, relative, recurring
}

// LocationRef is a location mention found in the text.
type LocationRef struct {
	Text string `json:"text"`
	Kind string `json:"kind"` // physical, virtual
}

// ExtractionResult is the structured view of a request produced by the
// extraction stage. All slice fields are always non-nil and enum fields are
// always valid members; Sanitize enforces both before a result is cached or
// returned.
type ExtractionResult struct {
	Ask         string        `json:"ask"`
	Constraints []string      `json:"constraints"`
	People      []Person      `json:"people"`
	DatesTimes  []DateTimeRef `json:"dates_times"`
	Locations   []LocationRef `json:"locations"`
	Language    string        `json:"language"`
	Sentiment   Sentiment     `json:"sentiment"`
	Urgency     Urgency       `json:"urgency"`
	Topics      []string      `json:"topics"`
	ActionItems []string      `json:"action_items"`
	ModelUsed   string        `json:"model_used"`
	DurationMs  int64         `json:"duration_ms"`
}

// Sanitize coerces nil slices to empty ones and enum fields to valid members.
// Called once before a result leaves the extraction stage; cached entries are
// immutable snapshots afterwards.
func (r *ExtractionResult) Sanitize() {
	if r.Constraints == nil {
		r.Constraints = []string{}
	}
	if r.People == nil {
		r.People = []Person{}
	}
	if r.DatesTimes == nil {
		r.DatesTimes = []DateTimeRef{}
	}
	if r.Locations == nil {
		r.Locations = []LocationRef{}
	}
	if r.Topics == nil {
		r.Topics = []string{}
	}
	if r.ActionItems == nil {
		r.ActionItems = []string{}
	}
	r.Sentiment = CoerceSentiment(string(r.Sentiment))
	r.Urgency = CoerceUrgency(string(r.Urgency))
	if r.Language == "" {
		r.Language = "en"
	}
}
