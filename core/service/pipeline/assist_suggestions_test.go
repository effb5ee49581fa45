package pipeline

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"assist_server/core/domain"
)

func testClassification(intent string, confidence float64) *domain.ClassificationResult {
	return &domain.ClassificationResult{Intent: intent, Confidence: confidence}
}

func TestAggregateRanking(t *testing.T) {
	g := NewSuggestionAggregator(6)
	text := "let's schedule an interview tomorrow at 2pm"
	ex := &domain.ExtractionResult{
		DatesTimes: []domain.DateTimeRef{{Text: "tomorrow at 2pm", Kind: "relative"}},
	}
	ex.Sanitize()

	got := g.Aggregate(testClassification("interview_scheduling", 0.8), ex, text, 0.7)
	if len(got.All) < 2 {
		t.Fatalf("suggestions = %d, want at least reply and schedule", len(got.All))
	}
	if got.All[0].Kind != domain.SuggestionSchedule {
		t.Errorf("top suggestion = %s, want schedule", got.All[0].Kind)
	}

	for i := 1; i < len(got.All); i++ {
		prev, cur := got.All[i-1], got.All[i]
		if cur.Priority > prev.Priority {
			t.Errorf("priority order violated at %d: %d > %d", i, cur.Priority, prev.Priority)
		}
		if cur.Priority == prev.Priority && cur.Confidence > prev.Confidence {
			t.Errorf("confidence tiebreak violated at %d", i)
		}
	}
}

func TestAggregateTopCapped(t *testing.T) {
	g := NewSuggestionAggregator(2)
	text := "schedule a weekly meeting about my flight order and the candidate resume, urgent?"
	ex := &domain.ExtractionResult{}
	ex.Sanitize()

	got := g.Aggregate(testClassification("schedule_meeting", 0.6), ex, text, 0.6)
	if len(got.Top) != 2 {
		t.Errorf("top = %d, want 2", len(got.Top))
	}
	if len(got.All) <= 2 {
		t.Errorf("all = %d, want full ordering beyond the cap", len(got.All))
	}
	for i := range got.Top {
		if got.Top[i].ID != got.All[i].ID {
			t.Error("top must be a prefix of the full ordering")
		}
	}
}

func TestAggregateEveryRationaleNonEmpty(t *testing.T) {
	g := NewSuggestionAggregator(6)
	text := "please schedule a recurring sync about the trip, book a flight and track my order"
	ex := &domain.ExtractionResult{}
	ex.Sanitize()

	got := g.Aggregate(testClassification("travel_planning", 0.7), ex, text, 0.55)
	if len(got.All) == 0 {
		t.Fatal("expected suggestions")
	}
	for _, s := range got.All {
		if s.Rationale == "" {
			t.Errorf("suggestion %s has empty rationale", s.Kind)
		}
		if s.ID == "" {
			t.Errorf("suggestion %s has empty id", s.Kind)
		}
	}
}

func TestHandoffPayloadBounded(t *testing.T) {
	g := NewSuggestionAggregator(6)
	long := "book a flight and a hotel " + strings.Repeat("details details ", 40)
	ex := &domain.ExtractionResult{
		People: []domain.Person{
			{Name: "a", Email: "a@x.io"}, {Name: "b", Email: "b@x.io"},
			{Name: "c", Email: "c@x.io"}, {Name: "d", Email: "d@x.io"},
		},
		Topics: []string{"travel"},
	}
	ex.Sanitize()

	got := g.Aggregate(testClassification("travel_planning", 0.7), ex, long, 0.5)

	var handoff *domain.ActionSuggestion
	for i := range got.All {
		if got.All[i].Kind == domain.SuggestionHandoff {
			handoff = &got.All[i]
			break
		}
	}
	if handoff == nil {
		t.Fatal("expected a handoff suggestion")
	}

	var payload domain.HandoffPayload
	if err := json.Unmarshal([]byte(handoff.SideEffectPayload), &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.Module != "travel" {
		t.Errorf("module = %s, want travel", payload.Module)
	}
	if len(payload.Notes) > 280 {
		t.Errorf("notes length = %d, want <= 280", len(payload.Notes))
	}
	people := 0
	for k := range payload.Entities {
		if strings.HasPrefix(k, "person_") {
			people++
		}
	}
	if people != 3 {
		t.Errorf("person entities = %d, want capped at 3", people)
	}
}

func TestAggregateEmptyText(t *testing.T) {
	g := NewSuggestionAggregator(6)
	ex := &domain.ExtractionResult{}
	ex.Sanitize()

	got := g.Aggregate(testClassification("general_inquiry", 0.3), ex, "", 0.5)
	if len(got.All) != 0 {
		t.Errorf("suggestions for empty text = %d, want 0", len(got.All))
	}
	if got.All == nil || got.Top == nil {
		t.Error("sets must be empty slices, not nil")
	}
}
