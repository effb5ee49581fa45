package pipeline

import (
	"testing"

	"assist_server/core/domain"
)

func TestHeuristicClassify(t *testing.T) {
	h := NewHeuristicClassifier(nil)

	tests := []struct {
		name        string
		text        string
		wantIntent  string
		wantUrgency domain.Urgency
	}{
		{
			name:        "interview scheduling beats generic meeting",
			text:        "Let's schedule an interview tomorrow at 2pm, it is urgent",
			wantIntent:  "interview_scheduling",
			wantUrgency: domain.UrgencyHigh,
		},
		{
			name:        "meeting request",
			text:        "Can we schedule a meeting to review the calendar for next quarter? Please check my availability.",
			wantIntent:  "schedule_meeting",
			wantUrgency: domain.UrgencyLow,
		},
		{
			name:        "travel request",
			text:        "I need to book a flight and a hotel for my trip, my itinerary is attached",
			wantIntent:  "travel_planning",
			wantUrgency: domain.UrgencyLow,
		},
		{
			name:        "unmatched text falls back to general inquiry",
			text:        "the quick brown fox jumps over the lazy dog",
			wantIntent:  "general_inquiry",
			wantUrgency: domain.UrgencyLow,
		},
		{
			name:        "medium urgency from soft deadline",
			text:        "Could you reply and follow up with them by end of day",
			wantIntent:  "reply_email",
			wantUrgency: domain.UrgencyMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Classify(tt.text)
			if got.Intent != tt.wantIntent {
				t.Errorf("intent = %s, want %s", got.Intent, tt.wantIntent)
			}
			if got.Urgency != tt.wantUrgency {
				t.Errorf("urgency = %s, want %s", got.Urgency, tt.wantUrgency)
			}
			if !got.IsFallback {
				t.Error("heuristic results must be marked as fallback")
			}
			if got.Confidence < heuristicFloor || got.Confidence > heuristicCap {
				t.Errorf("confidence %v outside [%v, %v]", got.Confidence, heuristicFloor, heuristicCap)
			}
		})
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	h := NewHeuristicClassifier(nil)
	text := "please schedule an interview with the candidate tomorrow"

	first := h.Classify(text)
	for i := 0; i < 5; i++ {
		again := h.Classify(text)
		if again.Intent != first.Intent || again.Confidence != first.Confidence {
			t.Fatalf("non-deterministic result: %+v vs %+v", again, first)
		}
	}
}

func TestHeuristicFallbackFloor(t *testing.T) {
	h := NewHeuristicClassifier(nil)

	got := h.Classify("completely unrelated gibberish zzz")
	if got.Intent != "general_inquiry" {
		t.Fatalf("intent = %s, want general_inquiry", got.Intent)
	}
	if got.Confidence != heuristicFloor {
		t.Errorf("confidence = %v, want floor %v", got.Confidence, heuristicFloor)
	}
	if got.Routing.Endpoint == "" {
		t.Error("fallback result must carry catalog routing")
	}
}

func TestHeuristicSubCategory(t *testing.T) {
	h := NewHeuristicClassifier(nil)

	got := h.Classify("schedule an interview phone screen with the candidate")
	if got.Intent != "interview_scheduling" {
		t.Fatalf("intent = %s, want interview_scheduling", got.Intent)
	}
	if got.SubCategory != "phone_screen" {
		t.Errorf("sub_category = %s, want phone_screen", got.SubCategory)
	}
}
