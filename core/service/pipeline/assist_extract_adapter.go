package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"assist_server/core/domain"
	"assist_server/pkg/logger"
	"assist_server/pkg/metrics"
)

// ExtractCapability is the external structure-extraction dependency. It
// returns the raw response text; the adapter locates and validates the JSON
// object itself.
type ExtractCapability interface {
	ExtractStructure(ctx context.Context, text, threadContext string) (string, error)
}

// ExtractionAdapter fronts the external extractor with the TTL cache and a
// regex-based local fallback. Like classification, it never returns an
// error.
type ExtractionAdapter struct {
	capability ExtractCapability
	cache      *ExtractionCache
	normalizer *TextNormalizer
	modelName  string
	metrics    *metrics.StageMetrics
}

func NewExtractionAdapter(capability ExtractCapability, cache *ExtractionCache, normalizer *TextNormalizer, modelName string, m *metrics.StageMetrics) *ExtractionAdapter {
	if cache == nil {
		cache = NewExtractionCache(DefaultExtractionTTL, nil)
	}
	if normalizer == nil {
		normalizer = NewTextNormalizer(DefaultMaxChars)
	}
	return &ExtractionAdapter{
		capability: capability,
		cache:      cache,
		normalizer: normalizer,
		modelName:  modelName,
		metrics:    m,
	}
}

// Extract returns structured entities for rawText. The cache key is the hash
// of the raw, pre-normalization text and the lookup happens before anything
// else, including normalization.
func (a *ExtractionAdapter) Extract(ctx context.Context, rawText, threadContext string) *domain.ExtractionResult {
	key := ContentHash(rawText)
	if cached, ok := a.cache.Get(key); ok {
		a.observe(time.Now(), false)
		return cached
	}

	start := time.Now()
	normalized := a.normalizer.Normalize(rawText)

	result, fallback := a.callExternal(ctx, normalized, threadContext)
	if fallback {
		result = fallbackExtract(normalized)
	}

	result.DurationMs = time.Since(start).Milliseconds()
	result.Sanitize()
	a.cache.Set(key, result)
	a.observe(start, fallback)
	return result
}

// callExternal returns (result, false) on a usable external response and
// (nil, true) when the local fallback must run.
func (a *ExtractionAdapter) callExternal(ctx context.Context, normalized, threadContext string) (*domain.ExtractionResult, bool) {
	if a.capability == nil {
		return nil, true
	}

	raw, err := a.capability.ExtractStructure(ctx, normalized, threadContext)
	if err != nil {
		logger.WithStage("extraction").WithError(err).Warn("external extraction failed, using fallback")
		return nil, true
	}

	span := firstJSONObject(raw)
	if span == "" {
		logger.WithStage("extraction").Warn("no JSON object in extraction response")
		return nil, true
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal([]byte(span), &result); err != nil {
		logger.WithStage("extraction").WithError(err).Warn("extraction response failed coercion")
		return nil, true
	}
	result.ModelUsed = a.modelName
	return &result, false
}

func (a *ExtractionAdapter) observe(start time.Time, fallback bool) {
	if a.metrics != nil {
		a.metrics.Observe("extraction", time.Since(start), fallback)
	}
}

// firstJSONObject returns the first balanced {...} span in s, honoring string
// literals and escapes, or "" when none exists.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

var (
	emailRe     = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	dateTokenRe = regexp.MustCompile(`(?i)\b(today|tomorrow|tonight|monday|tuesday|wednesday|thursday|friday|saturday|sunday|january|february|march|april|may|june|july|august|september|october|november|december|next week|this week)\b`)
)

// fallbackExtract is the deterministic local extractor: email addresses
// become people, weekday/month tokens become relative date references.
func fallbackExtract(normalized string) *domain.ExtractionResult {
	result := &domain.ExtractionResult{
		Language:  "en",
		ModelUsed: "regex-fallback",
	}

	seen := map[string]bool{}
	for _, email := range emailRe.FindAllString(normalized, -1) {
		lower := strings.ToLower(email)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		result.People = append(result.People, domain.Person{
			Name:  localPart(lower),
			Email: lower,
			Role:  "contact",
		})
	}

	seenDates := map[string]bool{}
	for _, token := range dateTokenRe.FindAllString(normalized, -1) {
		lower := strings.ToLower(token)
		if seenDates[lower] {
			continue
		}
		seenDates[lower] = true
		result.DatesTimes = append(result.DatesTimes, domain.DateTimeRef{
			Text: lower,
			Kind: "relative",
		})
	}

	result.Sanitize()
	return result
}

// localPart turns "jane.doe@example.com" into "jane".
func localPart(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	if sep := strings.IndexAny(local, "._+-"); sep > 0 {
		local = local[:sep]
	}
	return local
}
