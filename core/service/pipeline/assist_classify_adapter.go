package pipeline

import (
	"context"
	"strings"
	"time"

	"assist_server/core/agent/llm"
	"assist_server/core/domain"
	"assist_server/pkg/logger"
	"assist_server/pkg/metrics"
)

// ClassifyCapability is the external classification dependency. Nil is a
// valid wiring: the adapter then always answers heuristically.
type ClassifyCapability interface {
	ClassifyText(ctx context.Context, text string, rc *domain.RequestContext) (*llm.ClassifyPayload, error)
}

// ClassificationAdapter fronts the external classifier with validation and
// the heuristic fallback. It never returns an error: every failure mode
// degrades to a deterministic local result.
type ClassificationAdapter struct {
	capability ClassifyCapability
	heuristic  *HeuristicClassifier
	catalog    *IntentCatalog
	metrics    *metrics.StageMetrics
}

func NewClassificationAdapter(capability ClassifyCapability, heuristic *HeuristicClassifier, catalog *IntentCatalog, m *metrics.StageMetrics) *ClassificationAdapter {
	return &ClassificationAdapter{
		capability: capability,
		heuristic:  heuristic,
		catalog:    catalog,
		metrics:    m,
	}
}

// Classify returns the external result when the capability answers with a
// usable payload, otherwise the heuristic result for the same text.
// Confidence is clamped to [0,1]; missing sub-category and urgency are
// backfilled locally; routing metadata only ever comes from the catalog.
func (a *ClassificationAdapter) Classify(ctx context.Context, text string, rc *domain.RequestContext) *domain.ClassificationResult {
	start := time.Now()

	if a.capability == nil {
		result := a.heuristic.Classify(text)
		a.observe(start, true)
		return result
	}

	payload, err := a.capability.ClassifyText(ctx, text, rc)
	if err != nil || payload == nil || payload.Intent == "" {
		if err != nil {
			logger.WithStage("classification").WithError(err).Warn("external classification failed, using heuristic")
		}
		result := a.heuristic.Classify(text)
		a.observe(start, true)
		return result
	}

	result := a.assemble(payload, text)
	a.observe(start, false)
	return result
}

func (a *ClassificationAdapter) assemble(payload *llm.ClassifyPayload, text string) *domain.ClassificationResult {
	lower := strings.ToLower(text)

	spec := a.catalog.Lookup(payload.Intent)
	if spec == nil {
		spec = a.catalog.Fallback()
	}

	subCategory := payload.SubCategory
	if subCategory == "" {
		subCategory = a.heuristic.DeriveSubCategory(spec.Name, lower)
	}
	urgency := a.heuristic.DeriveUrgency(lower)
	if payload.Urgency != "" {
		urgency = domain.CoerceUrgency(payload.Urgency)
	}

	return &domain.ClassificationResult{
		Intent:           spec.Name,
		Confidence:       domain.ClampConfidence(payload.Confidence),
		SubCategory:      subCategory,
		Urgency:          urgency,
		SuggestedActions: append([]string{}, spec.SuggestedActions...),
		RequiredData:     append([]string{}, spec.RequiredData...),
		Routing:          spec.Routing,
		IsFallback:       false,
		Rationale:        payload.Rationale,
	}
}

func (a *ClassificationAdapter) observe(start time.Time, fallback bool) {
	if a.metrics != nil {
		a.metrics.Observe("classification", time.Since(start), fallback)
	}
}
