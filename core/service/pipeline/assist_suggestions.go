package pipeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"assist_server/core/domain"
)

const (
	DefaultSuggestionLimit = 6
	handoffNotesMaxChars   = 280
)

// crossModuleVocab maps a sibling module name to the tokens that signal the
// conversation belongs there.
var crossModuleVocab = map[string][]string{
	"travel":   {"flight", "hotel", "itinerary", "trip", "airport", "visa"},
	"shopping": {"order", "purchase", "refund", "shipping", "buy"},
	"hiring":   {"candidate", "resume", "recruiter", "hiring", "offer letter"},
}

var (
	timeOfDayRe   = regexp.MustCompile(`(?i)\b\d{1,2}(:\d{2})?\s*(am|pm)\b|\b(morning|afternoon|evening|noon)\b`)
	scheduleWords = []string{"schedule", "meeting", "interview", "call", "appointment", "sync"}
	repeatWords   = []string{"weekly", "every", "recurring", "daily", "monthly"}
)

// SuggestionAggregator turns classification, extraction and drafting signals
// into a ranked set of next-action proposals. Ranking is (priority desc,
// confidence desc); the full ordering is always kept alongside the capped
// presentation view.
type SuggestionAggregator struct {
	limit int
}

func NewSuggestionAggregator(limit int) *SuggestionAggregator {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	return &SuggestionAggregator{limit: limit}
}

// Aggregate builds the suggestion set for one request. normalizedText is the
// post-normalization text; draftConfidence is the locally computed drafting
// score for the same context.
func (g *SuggestionAggregator) Aggregate(classification *domain.ClassificationResult, extraction *domain.ExtractionResult, normalizedText string, draftConfidence float64) *domain.SuggestionSet {
	lower := strings.ToLower(normalizedText)
	suggestions := []domain.ActionSuggestion{}

	if s, ok := g.replySuggestion(classification, lower, draftConfidence); ok {
		suggestions = append(suggestions, s)
	}
	if s, ok := g.scheduleSuggestion(classification, extraction, lower); ok {
		suggestions = append(suggestions, s)
	}
	if s, ok := g.templateSuggestion(classification, lower); ok {
		suggestions = append(suggestions, s)
	}
	suggestions = append(suggestions, g.handoffSuggestions(classification, extraction, lower, normalizedText)...)

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Priority != suggestions[j].Priority {
			return suggestions[i].Priority > suggestions[j].Priority
		}
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	top := suggestions
	if len(top) > g.limit {
		top = top[:g.limit]
	}
	return &domain.SuggestionSet{All: suggestions, Top: top}
}

func (g *SuggestionAggregator) replySuggestion(c *domain.ClassificationResult, lower string, draftConfidence float64) (domain.ActionSuggestion, bool) {
	if lower == "" {
		return domain.ActionSuggestion{}, false
	}

	priority := 60
	rationale := "a direct reply keeps the thread moving"
	if strings.Contains(lower, "?") {
		priority += 10
		rationale = "the text asks direct questions; a reply answers them"
	}
	if containsAny(lower, []string{"urgent", "asap", "immediately"}) {
		priority += 5
	}

	return domain.ActionSuggestion{
		ID:         uuid.New().String(),
		Intent:     c.Intent,
		Kind:       domain.SuggestionReply,
		Label:      "Draft a reply",
		Icon:       "reply",
		Priority:   priority,
		Confidence: domain.ClampConfidence(draftConfidence),
		Rationale:  rationale,
	}, true
}

func (g *SuggestionAggregator) scheduleSuggestion(c *domain.ClassificationResult, ex *domain.ExtractionResult, lower string) (domain.ActionSuggestion, bool) {
	hasDates := ex != nil && len(ex.DatesTimes) > 0
	if !containsAny(lower, scheduleWords) && !hasDates {
		return domain.ActionSuggestion{}, false
	}

	priority := 70
	confidence := c.Confidence
	rationale := "scheduling language detected"
	if hasDates || timeOfDayRe.MatchString(lower) {
		priority += 10
		confidence = domain.ClampConfidence(confidence + 0.1)
		rationale = "a concrete time reference makes a calendar action actionable now"
	}

	return domain.ActionSuggestion{
		ID:         uuid.New().String(),
		Intent:     c.Intent,
		Kind:       domain.SuggestionSchedule,
		Label:      "Propose meeting times",
		Icon:       "calendar",
		Priority:   priority,
		Confidence: confidence,
		Rationale:  rationale,
	}, true
}

func (g *SuggestionAggregator) templateSuggestion(c *domain.ClassificationResult, lower string) (domain.ActionSuggestion, bool) {
	if !containsAny(lower, repeatWords) && !strings.Contains(lower, "template") {
		return domain.ActionSuggestion{}, false
	}

	return domain.ActionSuggestion{
		ID:         uuid.New().String(),
		Intent:     c.Intent,
		Kind:       domain.SuggestionSaveTemplate,
		Label:      "Save as template",
		Icon:       "bookmark",
		Priority:   40,
		Confidence: 0.5,
		Rationale:  "recurring phrasing suggests this reply will be reused",
	}, true
}

func (g *SuggestionAggregator) handoffSuggestions(c *domain.ClassificationResult, ex *domain.ExtractionResult, lower, normalizedText string) []domain.ActionSuggestion {
	out := []domain.ActionSuggestion{}
	for _, module := range []string{"travel", "shopping", "hiring"} {
		hits := 0
		for _, token := range crossModuleVocab[module] {
			if strings.Contains(lower, token) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		priority, confidence := 35, 0.45
		if hits >= 2 {
			priority, confidence = 55, 0.65
		}

		payload := buildHandoffPayload(module, c.Intent, ex, normalizedText)
		serialized, err := json.Marshal(payload)
		if err != nil {
			continue
		}

		out = append(out, domain.ActionSuggestion{
			ID:                uuid.New().String(),
			Intent:            c.Intent,
			Kind:              domain.SuggestionHandoff,
			Label:             "Hand off to " + module,
			Icon:              "arrow-right",
			Priority:          priority,
			Confidence:        confidence,
			Rationale:         "the request overlaps the " + module + " module's domain",
			SideEffectPayload: string(serialized),
		})
	}
	return out
}

// buildHandoffPayload assembles the bounded contract surface a sibling module
// receives: a few entities plus capped notes, never the full pipeline state.
func buildHandoffPayload(module, intent string, ex *domain.ExtractionResult, normalizedText string) *domain.HandoffPayload {
	entities := map[string]string{}
	if ex != nil {
		for i, p := range ex.People {
			if i >= 3 {
				break
			}
			value := p.Name
			if p.Email != "" {
				value = p.Email
			}
			entities["person_"+strconv.Itoa(i)] = value
		}
		for i, d := range ex.DatesTimes {
			if i >= 3 {
				break
			}
			entities["date_"+strconv.Itoa(i)] = d.Text
		}
		for i, t := range ex.Topics {
			if i >= 3 {
				break
			}
			entities["topic_"+strconv.Itoa(i)] = t
		}
	}

	notes := normalizedText
	if len(notes) > handoffNotesMaxChars {
		notes = notes[:handoffNotesMaxChars]
	}

	return &domain.HandoffPayload{
		Module:   module,
		Intent:   intent,
		Entities: entities,
		Notes:    notes,
	}
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
