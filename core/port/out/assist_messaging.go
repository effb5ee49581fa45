package out

import (
	"context"

	"assist_server/core/domain"
)

// DispatchProducer is the outbound port for async side effects: committed
// auto-sends and cross-module handoffs leave the process through here.
type DispatchProducer interface {
	PublishDispatch(ctx context.Context, job *DispatchJob) error
	PublishHandoff(ctx context.Context, payload *domain.HandoffPayload) error
}

// DispatchJob is a committed auto-send handed to the dispatch worker.
type DispatchJob struct {
	SessionID  string  `json:"session_id"`
	ContextKey string  `json:"context_key"`
	DraftRef   string  `json:"draft_ref"`
	Confidence float64 `json:"confidence"`
}
