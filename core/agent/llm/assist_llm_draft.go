package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"assist_server/core/domain"
	"assist_server/pkg/apperr"
)

// DraftRequest carries everything one drafting call needs.
type DraftRequest struct {
	Intent        string
	Text          string
	Extraction    *domain.ExtractionResult
	Slots         []domain.TimeSlot
	Tone          string
	RecipientHint string
}

// DraftReply asks the external generative capability for one reply draft in
// the requested tone. The response is free prose; the drafting adapter parses
// subject/body/signoff out of it.
func (c *Client) DraftReply(ctx context.Context, req *DraftRequest) (string, error) {
	systemPrompt := fmt.Sprintf(`You are an email drafting assistant. Write a complete reply for the user's request.

Tone: %s
Intent: %s

Start with a subject line prefixed "Subject:". Then the reply body. End with a short closing such as "Best regards" followed by a blank signature line.
Do not add commentary outside the email itself.`, req.Tone, req.Intent)

	var b strings.Builder
	fmt.Fprintf(&b, "Source text:\n%s\n", truncate(req.Text, 2000))

	if req.Extraction != nil {
		if extractionJSON, err := json.Marshal(req.Extraction); err == nil {
			fmt.Fprintf(&b, "\nExtracted context:\n%s\n", truncate(string(extractionJSON), 1500))
		}
	}
	if len(req.Slots) > 0 {
		if slotsJSON, err := json.Marshal(req.Slots); err == nil {
			fmt.Fprintf(&b, "\nAvailable time slots:\n%s\n", string(slotsJSON))
		}
	}
	if req.RecipientHint != "" {
		fmt.Fprintf(&b, "\nRecipient: %s\n", req.RecipientHint)
	}

	resp, err := c.CompleteWithSystem(ctx, systemPrompt, b.String())
	if err != nil {
		return "", apperr.ExternalService("drafting", err)
	}
	if strings.TrimSpace(resp) == "" {
		return "", apperr.ParseFailure("drafting", "empty response")
	}
	return resp, nil
}
