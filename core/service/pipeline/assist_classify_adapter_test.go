package pipeline

import (
	"context"
	"errors"
	"testing"

	"assist_server/core/agent/llm"
	"assist_server/core/domain"
)

type stubClassifyCapability struct {
	payload *llm.ClassifyPayload
	err     error
}

func (s *stubClassifyCapability) ClassifyText(ctx context.Context, text string, rc *domain.RequestContext) (*llm.ClassifyPayload, error) {
	return s.payload, s.err
}

func newTestClassificationAdapter(cap ClassifyCapability) *ClassificationAdapter {
	catalog := DefaultCatalog()
	return NewClassificationAdapter(cap, NewHeuristicClassifier(catalog), catalog, nil)
}

func TestClassifyExternalSuccess(t *testing.T) {
	a := newTestClassificationAdapter(&stubClassifyCapability{
		payload: &llm.ClassifyPayload{
			Intent:     "schedule_meeting",
			Confidence: 0.92,
			Urgency:    "high",
			Rationale:  "explicit meeting request",
		},
	})

	got := a.Classify(context.Background(), "let's set up a call", nil)
	if got.Intent != "schedule_meeting" {
		t.Errorf("intent = %s", got.Intent)
	}
	if got.Confidence != 0.92 {
		t.Errorf("confidence = %v", got.Confidence)
	}
	if got.IsFallback {
		t.Error("external success must not be marked fallback")
	}
	if got.Urgency != domain.UrgencyHigh {
		t.Errorf("urgency = %s", got.Urgency)
	}
	if got.Routing.Endpoint != "/api/v1/actions/schedule" {
		t.Errorf("routing = %+v, want catalog routing", got.Routing)
	}
}

func TestClassifyConfidenceClamped(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"above one", 1.7, 1.0},
		{"below zero", -0.2, 0.0},
		{"in range untouched", 0.42, 0.42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestClassificationAdapter(&stubClassifyCapability{
				payload: &llm.ClassifyPayload{Intent: "reply_email", Confidence: tt.in},
			})
			got := a.Classify(context.Background(), "please reply", nil)
			if got.Confidence != tt.want {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.want)
			}
		})
	}
}

func TestClassifyFallbackEqualsHeuristic(t *testing.T) {
	text := "schedule an interview with the candidate tomorrow, urgent"
	h := NewHeuristicClassifier(DefaultCatalog())
	want := h.Classify(text)

	failures := []ClassifyCapability{
		&stubClassifyCapability{err: errors.New("timeout")},
		&stubClassifyCapability{payload: &llm.ClassifyPayload{Intent: ""}},
		nil,
	}
	for _, cap := range failures {
		a := newTestClassificationAdapter(cap)
		got := a.Classify(context.Background(), text, nil)
		if got.Intent != want.Intent || got.Confidence != want.Confidence {
			t.Errorf("fallback result %s/%v, want heuristic %s/%v", got.Intent, got.Confidence, want.Intent, want.Confidence)
		}
		if !got.IsFallback {
			t.Error("fallback result must be marked IsFallback")
		}
	}
}

func TestClassifyBackfillsLocalDerivations(t *testing.T) {
	// External answer with no sub-category or urgency: both come from the
	// local keyword rules for the same text.
	a := newTestClassificationAdapter(&stubClassifyCapability{
		payload: &llm.ClassifyPayload{Intent: "interview_scheduling", Confidence: 0.8},
	})

	got := a.Classify(context.Background(), "set up an interview phone screen asap", nil)
	if got.SubCategory != "phone_screen" {
		t.Errorf("sub_category = %q, want phone_screen", got.SubCategory)
	}
	if got.Urgency != domain.UrgencyHigh {
		t.Errorf("urgency = %s, want high", got.Urgency)
	}
}

func TestClassifyUnknownIntentUsesFallbackCatalogEntry(t *testing.T) {
	a := newTestClassificationAdapter(&stubClassifyCapability{
		payload: &llm.ClassifyPayload{Intent: "made_up_intent", Confidence: 0.9},
	})

	got := a.Classify(context.Background(), "whatever text", nil)
	if got.Intent != "general_inquiry" {
		t.Errorf("intent = %s, want general_inquiry", got.Intent)
	}
	if got.Routing.Endpoint == "" {
		t.Error("unknown intent must still carry catalog routing")
	}
}
