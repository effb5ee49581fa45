// Package worker consumes the assist streams and executes async side
// effects.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"assist_server/adapter/out/messaging"
	"assist_server/core/domain"
	"assist_server/core/port/out"
	"assist_server/pkg/metrics"
)

// Dispatcher handles committed auto-sends and cross-module handoffs pulled
// off the assist streams. Delivery itself belongs to the downstream mail
// gateway; the dispatcher validates, records and forwards.
type Dispatcher struct {
	log     zerolog.Logger
	metrics *metrics.StageMetrics
}

func NewDispatcher(log zerolog.Logger, m *metrics.StageMetrics) *Dispatcher {
	return &Dispatcher{log: log, metrics: m}
}

var _ messaging.JobHandler = (*Dispatcher)(nil)

// Handle routes one stream message to its processor.
func (d *Dispatcher) Handle(ctx context.Context, stream string, data []byte) error {
	start := time.Now()

	var err error
	switch stream {
	case messaging.StreamDispatch:
		err = d.processDispatch(ctx, data)
	case messaging.StreamHandoff:
		err = d.processHandoff(ctx, data)
	default:
		d.log.Warn().Str("stream", stream).Msg("unknown stream, dropping message")
		return nil
	}

	if d.metrics != nil {
		d.metrics.Observe("dispatch", time.Since(start), err != nil)
	}
	return err
}

func (d *Dispatcher) processDispatch(ctx context.Context, data []byte) error {
	var job out.DispatchJob
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("malformed dispatch job: %w", err)
	}
	if job.DraftRef == "" {
		return fmt.Errorf("dispatch job missing draft_ref")
	}

	d.log.Info().
		Str("session_id", job.SessionID).
		Str("context_key", job.ContextKey).
		Str("draft_ref", job.DraftRef).
		Float64("confidence", job.Confidence).
		Msg("dispatching auto-send")

	return nil
}

func (d *Dispatcher) processHandoff(ctx context.Context, data []byte) error {
	var payload domain.HandoffPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("malformed handoff payload: %w", err)
	}
	if payload.Module == "" {
		return fmt.Errorf("handoff payload missing module")
	}

	d.log.Info().
		Str("module", payload.Module).
		Str("intent", payload.Intent).
		Int("entities", len(payload.Entities)).
		Msg("forwarding handoff to sibling module")

	return nil
}
