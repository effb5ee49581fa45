package pipeline

import (
	"fmt"
	"strings"

	"assist_server/core/domain"
)

const (
	heuristicKeywordWeight = 0.6
	heuristicPhraseWeight  = 0.4
	heuristicCap           = 0.9
	heuristicFloor         = 0.3
)

// HeuristicClassifier is the deterministic keyword/phrase scorer. It is both
// a standalone classifier and the fallback path whenever the external
// classification capability fails; identical input always yields an
// identical result.
type HeuristicClassifier struct {
	catalog *IntentCatalog
}

func NewHeuristicClassifier(catalog *IntentCatalog) *HeuristicClassifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &HeuristicClassifier{catalog: catalog}
}

// Classify scores every catalog intent against the normalized text. Results
// below the confidence floor collapse to general_inquiry at the floor value.
// IsFallback is always true here: this is the local path.
func (h *HeuristicClassifier) Classify(text string) *domain.ClassificationResult {
	lower := strings.ToLower(text)

	var best *IntentSpec
	bestScore := 0.0
	for i := range h.catalog.Intents {
		spec := &h.catalog.Intents[i]
		score := scoreIntent(lower, spec)
		if score > bestScore {
			best, bestScore = spec, score
		}
	}

	if best == nil || bestScore < heuristicFloor {
		best = h.catalog.Fallback()
		bestScore = heuristicFloor
	}
	if bestScore > heuristicCap {
		bestScore = heuristicCap
	}

	return h.buildResult(best, bestScore, lower)
}

// DeriveUrgency applies the catalog's urgency keyword sets; high overrides
// medium, anything else is low.
func (h *HeuristicClassifier) DeriveUrgency(lowerText string) domain.Urgency {
	for _, kw := range h.catalog.HighUrgency {
		if strings.Contains(lowerText, kw) {
			return domain.UrgencyHigh
		}
	}
	for _, kw := range h.catalog.MediumUrgency {
		if strings.Contains(lowerText, kw) {
			return domain.UrgencyMedium
		}
	}
	return domain.UrgencyLow
}

// DeriveSubCategory applies an intent's secondary keyword rules; first match
// wins, empty when nothing matches.
func (h *HeuristicClassifier) DeriveSubCategory(intent, lowerText string) string {
	spec := h.catalog.Lookup(intent)
	if spec == nil {
		return ""
	}
	for _, rule := range spec.SubRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowerText, kw) {
				return rule.SubCategory
			}
		}
	}
	return ""
}

func (h *HeuristicClassifier) buildResult(spec *IntentSpec, score float64, lowerText string) *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Intent:           spec.Name,
		Confidence:       score,
		SubCategory:      h.DeriveSubCategory(spec.Name, lowerText),
		Urgency:          h.DeriveUrgency(lowerText),
		SuggestedActions: append([]string{}, spec.SuggestedActions...),
		RequiredData:     append([]string{}, spec.RequiredData...),
		Routing:          spec.Routing,
		IsFallback:       true,
		Rationale:        fmt.Sprintf("keyword match for %s", spec.Name),
	}
}

func scoreIntent(lowerText string, spec *IntentSpec) float64 {
	kwHits := 0
	for _, kw := range spec.Keywords {
		if strings.Contains(lowerText, kw) {
			kwHits++
		}
	}
	phraseHits := 0
	for _, ph := range spec.Phrases {
		if strings.Contains(lowerText, ph) {
			phraseHits++
		}
	}

	score := 0.0
	if len(spec.Keywords) > 0 {
		score += heuristicKeywordWeight * float64(kwHits) / float64(len(spec.Keywords))
	}
	if len(spec.Phrases) > 0 {
		score += heuristicPhraseWeight * float64(phraseHits) / float64(len(spec.Phrases))
	}
	return score * spec.BaseWeight
}
