package pipeline

import (
	"context"
	"errors"
	"testing"

	"assist_server/core/agent/llm"
	"assist_server/core/domain"
)

type stubDraftCapability struct {
	responses map[string]string // tone -> response
	errTones  map[string]bool
	calls     []string
}

func (s *stubDraftCapability) DraftReply(ctx context.Context, req *llm.DraftRequest) (string, error) {
	s.calls = append(s.calls, req.Tone)
	if s.errTones[req.Tone] {
		return "", errors.New("generation failed")
	}
	if resp, ok := s.responses[req.Tone]; ok {
		return resp, nil
	}
	return "Subject: Re: Test\n\nBody for " + req.Tone + ".\n\nBest regards,\nAssistant", nil
}

func richExtraction() *domain.ExtractionResult {
	r := &domain.ExtractionResult{
		Ask:        "schedule a meeting with the team",
		People:     []domain.Person{{Name: "jane", Email: "jane@example.com"}},
		DatesTimes: []domain.DateTimeRef{{Text: "tomorrow", Kind: "relative"}},
		Topics:     []string{"planning"},
	}
	r.Sanitize()
	return r
}

func TestDraftPrimaryAndAlternatives(t *testing.T) {
	cap := &stubDraftCapability{}
	a := NewDraftingAdapter(cap, "test-model", nil)

	got := a.Draft(context.Background(), DraftInput{
		Intent:     "schedule_meeting",
		Text:       "can we meet tomorrow",
		Extraction: richExtraction(),
	})

	if got.Primary.Tone != "professional" {
		t.Errorf("primary tone = %s, want professional", got.Primary.Tone)
	}
	if len(got.Alternatives) != 2 {
		t.Fatalf("alternatives = %d, want 2", len(got.Alternatives))
	}
	for _, alt := range got.Alternatives {
		if alt.Tone == got.Primary.Tone {
			t.Errorf("alternative reuses primary tone %s", alt.Tone)
		}
	}
	if got.ModelUsed != "test-model" {
		t.Errorf("ModelUsed = %q", got.ModelUsed)
	}
}

func TestDraftPreferredToneFromProfile(t *testing.T) {
	cap := &stubDraftCapability{}
	a := NewDraftingAdapter(cap, "test-model", nil)

	got := a.Draft(context.Background(), DraftInput{
		Intent:  "reply_email",
		Text:    "hello",
		Profile: &domain.Profile{PreferredTone: "friendly"},
	})
	if got.Primary.Tone != "friendly" {
		t.Errorf("primary tone = %s, want friendly", got.Primary.Tone)
	}
}

func TestDraftAlternativesBestEffort(t *testing.T) {
	cap := &stubDraftCapability{errTones: map[string]bool{"concise": true}}
	a := NewDraftingAdapter(cap, "test-model", nil)

	got := a.Draft(context.Background(), DraftInput{Intent: "reply_email", Text: "hello"})
	if len(got.Alternatives) != 1 {
		t.Fatalf("alternatives = %d, want 1 when one tone fails", len(got.Alternatives))
	}
	if got.Alternatives[0].Tone != "friendly" {
		t.Errorf("surviving alternative tone = %s", got.Alternatives[0].Tone)
	}
}

func TestDraftFallbackTemplateOnPrimaryFailure(t *testing.T) {
	cap := &stubDraftCapability{errTones: map[string]bool{
		"professional": true, "friendly": true, "concise": true,
	}}
	a := NewDraftingAdapter(cap, "test-model", nil)

	got := a.Draft(context.Background(), DraftInput{
		Intent:     "interview_scheduling",
		Text:       "schedule the interview",
		Extraction: richExtraction(),
	})
	if got.ModelUsed != "template-fallback" {
		t.Fatalf("ModelUsed = %q, want template-fallback", got.ModelUsed)
	}
	if got.Primary.Body == "" || got.Primary.Subject == "" {
		t.Error("fallback draft must still have subject and body")
	}
	if len(got.Alternatives) != 0 {
		t.Errorf("fallback must not attempt alternatives, got %d", len(got.Alternatives))
	}
	// Only the primary tone was tried before falling back.
	if len(cap.calls) != 1 {
		t.Errorf("capability calls = %v, want one attempt", cap.calls)
	}
}

func TestComputeDraftConfidence(t *testing.T) {
	tests := []struct {
		name  string
		ex    *domain.ExtractionResult
		slots []domain.TimeSlot
		want  float64
	}{
		{"nothing known", &domain.ExtractionResult{}, nil, 0.5},
		{"nil extraction", nil, nil, 0.5},
		{
			"ask and people",
			&domain.ExtractionResult{Ask: "a long enough ask here", People: []domain.Person{{Name: "bo"}}},
			nil,
			0.7,
		},
		{
			"short ask earns nothing",
			&domain.ExtractionResult{Ask: "short"},
			nil,
			0.5,
		},
		{
			"slots bonus",
			&domain.ExtractionResult{},
			[]domain.TimeSlot{{Start: "2024-01-16T14:00:00Z", End: "2024-01-16T15:00:00Z"}},
			0.7,
		},
		{
			"everything caps at 0.95",
			&domain.ExtractionResult{
				Ask:        "a long enough ask here",
				People:     []domain.Person{{Name: "jane"}},
				DatesTimes: []domain.DateTimeRef{{Text: "tomorrow"}},
				Topics:     []string{"planning"},
				Sentiment:  domain.SentimentPositive,
				Urgency:    domain.UrgencyHigh,
			},
			[]domain.TimeSlot{{Start: "s", End: "e"}},
			0.95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDraftConfidence(tt.ex, tt.slots)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("confidence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDraftText(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantSubject string
		wantBody    string
		wantSignoff string
	}{
		{
			name:        "subject prefix",
			raw:         "Subject: Re: Meeting\n\nHappy to meet tomorrow.\n\nBest regards,\nJane",
			wantSubject: "Re: Meeting",
			wantBody:    "Happy to meet tomorrow.",
			wantSignoff: "Best regards,\nJane",
		},
		{
			name:        "re prefixed first line",
			raw:         "Re: Quarterly review\nLet's lock in Thursday.\nThanks,\nSam",
			wantSubject: "Re: Quarterly review",
			wantBody:    "Let's lock in Thursday.",
			wantSignoff: "Thanks,\nSam",
		},
		{
			name:        "plain first line becomes subject",
			raw:         "Meeting confirmation\nSee you at 2pm.",
			wantSubject: "Meeting confirmation",
			wantBody:    "See you at 2pm.",
			wantSignoff: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDraftText(tt.raw)
			if got.Subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", got.Subject, tt.wantSubject)
			}
			if got.Body != tt.wantBody {
				t.Errorf("body = %q, want %q", got.Body, tt.wantBody)
			}
			if got.Signoff != tt.wantSignoff {
				t.Errorf("signoff = %q, want %q", got.Signoff, tt.wantSignoff)
			}
			if got.WordCount != len(splitWords(got.Body)) {
				t.Errorf("word count = %d", got.WordCount)
			}
		})
	}
}

func splitWords(s string) []string {
	if s == "" {
		return nil
	}
	fields := []string{}
	word := ""
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			if word != "" {
				fields = append(fields, word)
				word = ""
			}
			continue
		}
		word += string(r)
	}
	if word != "" {
		fields = append(fields, word)
	}
	return fields
}
