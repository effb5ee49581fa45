package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"assist_server/core/domain"
	"assist_server/pkg/apperr"
)

// ClassifyPayload is the raw, untrusted classification response. The
// classification adapter validates and coerces it before anything downstream
// sees it.
type ClassifyPayload struct {
	Intent      string  `json:"intent"`
	Confidence  float64 `json:"confidence"`
	SubCategory string  `json:"sub_category,omitempty"`
	Urgency     string  `json:"urgency,omitempty"`
	Rationale   string  `json:"rationale,omitempty"`
}

// ClassifyText asks the external classification capability for an intent.
func (c *Client) ClassifyText(ctx context.Context, text string, rc *domain.RequestContext) (*ClassifyPayload, error) {
	systemPrompt := `You are an intent classification AI for an email assistant. Analyze the user's text and respond with JSON only.

Respond with this exact JSON format:
{
  "intent": "intent name in snake_case (e.g. schedule_meeting, interview_scheduling, reply_email, save_template, travel_planning, shopping_assistance, general_inquiry)",
  "confidence": 0.0-1.0,
  "sub_category": "optional finer category or empty",
  "urgency": "low|medium|high",
  "rationale": "one sentence explaining the classification"
}`

	userPrompt := buildClassifyPrompt(text, rc)

	resp, err := c.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, apperr.ExternalService("classification", err)
	}

	var payload ClassifyPayload
	resp = cleanJSONResponse(resp)
	if err := json.Unmarshal([]byte(resp), &payload); err != nil {
		return nil, apperr.ParseFailure("classification", "invalid JSON")
	}

	return &payload, nil
}

func buildClassifyPrompt(text string, rc *domain.RequestContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Text:\n%s\n", truncate(text, 2000))

	if rc != nil {
		if len(rc.ThreadHistory) > 0 {
			b.WriteString("\nThread history (most recent last):\n")
			for _, msg := range rc.ThreadHistory {
				fmt.Fprintf(&b, "- %s\n", truncate(msg, 300))
			}
		}
		if len(rc.RecentActions) > 0 {
			fmt.Fprintf(&b, "\nRecent user actions: %s\n", strings.Join(rc.RecentActions, ", "))
		}
		if rc.UserProfile != nil && rc.UserProfile.PreferredTone != "" {
			fmt.Fprintf(&b, "\nUser preferred tone: %s\n", rc.UserProfile.PreferredTone)
		}
	}

	return b.String()
}
