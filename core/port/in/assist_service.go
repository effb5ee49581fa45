package in

import (
	"context"

	"assist_server/core/domain"
)

// AssistService is the inbound port for the request pipeline. Stage methods
// expose individual stages; Process runs the whole pipeline for one request.
type AssistService interface {
	// Individual stages
	Classify(ctx context.Context, req *AssistRequest) (*domain.ClassificationResult, error)
	Extract(ctx context.Context, req *AssistRequest) (*domain.ExtractionResult, error)
	Draft(ctx context.Context, req *DraftRequest) (*domain.DraftSet, error)
	Suggest(ctx context.Context, req *AssistRequest) (*domain.SuggestionSet, error)

	// Full pipeline
	Process(ctx context.Context, req *ProcessRequest) (*ProcessResult, error)

	// Auto-send lifecycle
	StartAutoSend(ctx context.Context, req *AutoSendStartRequest) (*AutoSendStartResult, error)
	CancelAutoSend(ctx context.Context, contextKey string) (*domain.AutoSendSession, error)
	GetAutoSend(ctx context.Context, contextKey string) (*domain.AutoSendSession, error)

	// Template capture
	SaveTemplate(ctx context.Context, req *SaveTemplateRequest) (*SaveTemplateResult, error)
}

// AssistRequest is the common request body for single-stage endpoints.
type AssistRequest struct {
	Text          string                 `json:"text"`
	ThreadContext string                 `json:"thread_context,omitempty"`
	Context       *domain.RequestContext `json:"context,omitempty"`
}

// DraftRequest adds drafting-specific inputs.
type DraftRequest struct {
	AssistRequest
	Intent string            `json:"intent,omitempty"`
	Slots  []domain.TimeSlot `json:"slots,omitempty"`
}

// ProcessRequest runs the full pipeline. ContextKey scopes the auto-send
// session; AllowAutoSend opts the request into the countdown evaluation.
type ProcessRequest struct {
	AssistRequest
	ContextKey    string            `json:"context_key,omitempty"`
	Slots         []domain.TimeSlot `json:"slots,omitempty"`
	AllowAutoSend bool              `json:"allow_auto_send,omitempty"`
}

// ProcessResult is the full pipeline output for one request.
type ProcessResult struct {
	RequestID      string                       `json:"request_id"`
	NormalizedText string                       `json:"normalized_text"`
	Classification *domain.ClassificationResult `json:"classification"`
	Extraction     *domain.ExtractionResult     `json:"extraction"`
	Drafts         *domain.DraftSet             `json:"drafts"`
	Suggestions    *domain.SuggestionSet        `json:"suggestions"`
	Confidence     float64                      `json:"confidence"`
	AutoSend       *domain.AutoSendSession      `json:"auto_send,omitempty"`
	DurationMs     int64                        `json:"duration_ms"`
}

// AutoSendStartRequest starts a countdown explicitly.
type AutoSendStartRequest struct {
	ContextKey string  `json:"context_key"`
	DraftRef   string  `json:"draft_ref"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

// AutoSendStartResult reports whether the gates admitted the attempt.
type AutoSendStartResult struct {
	Started bool                    `json:"started"`
	Reason  string                  `json:"reason,omitempty"`
	Session *domain.AutoSendSession `json:"session,omitempty"`
}

// SaveTemplateRequest captures a draft as a reusable template.
type SaveTemplateRequest struct {
	UserID   string   `json:"user_id"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags,omitempty"`
}

// SaveTemplateResult is the stored template's identity.
type SaveTemplateResult struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}
