package llm

import (
	"context"
	"fmt"

	"assist_server/pkg/apperr"
)

// ExtractStructure asks the external extraction capability for a structured
// view of the text. The raw response is returned as-is: the capability may
// wrap the JSON object in explanatory prose, and the extraction adapter
// locates the first balanced object span itself.
func (c *Client) ExtractStructure(ctx context.Context, text, threadContext string) (string, error) {
	systemPrompt := `You are an entity extraction AI for an email assistant. Extract structured information from the text.

Respond with this exact JSON format:
{
  "ask": "the core request in one sentence",
  "constraints": ["constraint1"],
  "people": [{"name": "jane", "email": "jane@example.com", "role": "contact"}],
  "dates_times": [{"text": "tomorrow at 2pm", "parsed_iso": "2024-01-16T14:00:00Z", "kind": "relative"}],
  "locations": [{"text": "HQ room 4", "kind": "physical"}],
  "language": "en",
  "sentiment": "positive|neutral|negative",
  "urgency": "low|medium|high",
  "topics": ["topic1"],
  "action_items": ["item1"]
}

Use empty arrays for anything not present. Do not invent entities.`

	userPrompt := fmt.Sprintf("Text:\n%s", truncate(text, 2000))
	if threadContext != "" {
		userPrompt += fmt.Sprintf("\n\nThread context:\n%s", truncate(threadContext, 1000))
	}

	resp, err := c.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", apperr.ExternalService("extraction", err)
	}
	return resp, nil
}
