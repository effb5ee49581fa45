package pipeline

import "assist_server/core/domain"

// SubCategoryRule maps secondary keywords to a finer category inside one
// intent.
type SubCategoryRule struct {
	SubCategory string
	Keywords    []string
}

// IntentSpec is one static intent definition: the scoring vocabulary plus the
// routing and action metadata attached to results for this intent.
type IntentSpec struct {
	Name             string
	Keywords         []string
	Phrases          []string
	BaseWeight       float64
	SubRules         []SubCategoryRule
	SuggestedActions []string
	RequiredData     []string
	Routing          domain.Routing
}

// IntentCatalog is the injectable, immutable intent vocabulary shared by the
// heuristic classifier and by result assembly for external classifications.
// Urgency keyword sets are independent of intent scoring.
type IntentCatalog struct {
	Intents        []IntentSpec
	FallbackIntent string
	HighUrgency    []string
	MediumUrgency  []string
}

// Lookup returns the spec for an intent name, or nil when the catalog does
// not know the intent.
func (c *IntentCatalog) Lookup(name string) *IntentSpec {
	for i := range c.Intents {
		if c.Intents[i].Name == name {
			return &c.Intents[i]
		}
	}
	return nil
}

// Fallback returns the general-inquiry spec. The catalog always carries one.
func (c *IntentCatalog) Fallback() *IntentSpec {
	return c.Lookup(c.FallbackIntent)
}

// DefaultCatalog returns the built-in intent vocabulary.
func DefaultCatalog() *IntentCatalog {
	return &IntentCatalog{
		FallbackIntent: "general_inquiry",
		HighUrgency:    []string{"urgent", "asap", "immediately", "emergency", "critical", "right away"},
		MediumUrgency:  []string{"soon", "tomorrow", "this week", "end of day", "quickly", "shortly"},
		Intents: []IntentSpec{
			{
				Name:       "interview_scheduling",
				Keywords:   []string{"interview", "candidate", "recruiter", "screening"},
				Phrases:    []string{"schedule an interview", "set up an interview"},
				BaseWeight: 1.0,
				SubRules: []SubCategoryRule{
					{SubCategory: "phone_screen", Keywords: []string{"phone", "call", "screen"}},
					{SubCategory: "onsite", Keywords: []string{"onsite", "office", "in person"}},
				},
				SuggestedActions: []string{"propose_slots", "reply"},
				RequiredData:     []string{"date", "time", "attendees"},
				Routing:          domain.Routing{Endpoint: "/api/v1/actions/schedule", Method: "POST", EstimatedLatency: 400},
			},
			{
				Name:       "schedule_meeting",
				Keywords:   []string{"schedule", "meeting", "calendar", "appointment", "reschedule", "availability"},
				Phrases:    []string{"schedule a meeting", "set up a call", "find a time", "book a meeting"},
				BaseWeight: 0.95,
				SubRules: []SubCategoryRule{
					{SubCategory: "reschedule", Keywords: []string{"reschedule", "move", "postpone"}},
					{SubCategory: "recurring", Keywords: []string{"weekly", "recurring", "every"}},
				},
				SuggestedActions: []string{"propose_slots", "reply"},
				RequiredData:     []string{"date", "time", "attendees"},
				Routing:          domain.Routing{Endpoint: "/api/v1/actions/schedule", Method: "POST", EstimatedLatency: 400},
			},
			{
				Name:       "reply_email",
				Keywords:   []string{"reply", "respond", "answer", "response", "follow"},
				Phrases:    []string{"get back to", "write back", "follow up with"},
				BaseWeight: 0.9,
				SubRules: []SubCategoryRule{
					{SubCategory: "decline", Keywords: []string{"decline", "unfortunately", "cannot"}},
					{SubCategory: "accept", Keywords: []string{"accept", "confirm", "sounds good"}},
				},
				SuggestedActions: []string{"draft_reply"},
				RequiredData:     []string{"recipient"},
				Routing:          domain.Routing{Endpoint: "/api/v1/actions/draft", Method: "POST", EstimatedLatency: 800},
			},
			{
				Name:       "save_template",
				Keywords:   []string{"template", "snippet", "boilerplate", "reuse"},
				Phrases:    []string{"save this as", "use this again", "save for later"},
				BaseWeight: 0.9,
				SuggestedActions: []string{"save_template"},
				RequiredData:     []string{"template_name"},
				Routing:          domain.Routing{Endpoint: "/api/v1/actions/templates", Method: "POST", EstimatedLatency: 150},
			},
			{
				Name:       "travel_planning",
				Keywords:   []string{"flight", "hotel", "trip", "itinerary", "travel", "airport"},
				Phrases:    []string{"book a flight", "plan a trip", "travel arrangements"},
				BaseWeight: 0.9,
				SubRules: []SubCategoryRule{
					{SubCategory: "flight", Keywords: []string{"flight", "airport", "airline"}},
					{SubCategory: "accommodation", Keywords: []string{"hotel", "airbnb", "stay"}},
				},
				SuggestedActions: []string{"handoff_travel"},
				RequiredData:     []string{"destination", "dates"},
				Routing:          domain.Routing{Endpoint: "/api/v1/actions/handoff", Method: "POST", EstimatedLatency: 250},
			},
			{
				Name:       "shopping_assistance",
				Keywords:   []string{"order", "purchase", "refund", "shipping", "buy"},
				Phrases:    []string{"place an order", "track my order", "return this"},
				BaseWeight: 0.85,
				SubRules: []SubCategoryRule{
					{SubCategory: "returns", Keywords: []string{"refund", "return", "exchange"}},
				},
				SuggestedActions: []string{"handoff_shopping"},
				RequiredData:     []string{"item"},
				Routing:          domain.Routing{Endpoint: "/api/v1/actions/handoff", Method: "POST", EstimatedLatency: 250},
			},
			{
				Name:             "general_inquiry",
				Keywords:         []string{"question", "help", "information"},
				Phrases:          []string{"can you help", "i would like to know"},
				BaseWeight:       0.8,
				SuggestedActions: []string{"draft_reply"},
				RequiredData:     []string{},
				Routing:          domain.Routing{Endpoint: "/api/v1/actions/draft", Method: "POST", EstimatedLatency: 800},
			},
		},
	}
}
