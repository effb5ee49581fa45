package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"assist_server/core/agent/llm"
	"assist_server/core/domain"
	"assist_server/pkg/logger"
	"assist_server/pkg/metrics"
)

const (
	draftConfidenceBase = 0.5
	draftConfidenceCap  = 0.95
	maxAlternatives     = 2
)

// toneVariants is the ordered pool alternatives are drawn from.
var toneVariants = []string{"professional", "friendly", "concise"}

// DraftCapability is the external generative dependency.
type DraftCapability interface {
	DraftReply(ctx context.Context, req *llm.DraftRequest) (string, error)
}

// DraftingAdapter produces a primary draft plus up to two tone variants.
// Candidate confidence is always computed locally from contextual
// completeness; a failed primary degrades to a deterministic template draft,
// failed alternatives are silently omitted.
type DraftingAdapter struct {
	capability DraftCapability
	modelName  string
	metrics    *metrics.StageMetrics
}

func NewDraftingAdapter(capability DraftCapability, modelName string, m *metrics.StageMetrics) *DraftingAdapter {
	return &DraftingAdapter{capability: capability, modelName: modelName, metrics: m}
}

// DraftInput carries everything one drafting invocation needs.
type DraftInput struct {
	Intent     string
	Text       string
	Extraction *domain.ExtractionResult
	Slots      []domain.TimeSlot
	Profile    *domain.Profile
}

// Draft generates the draft set for one request.
func (a *DraftingAdapter) Draft(ctx context.Context, in DraftInput) *domain.DraftSet {
	start := time.Now()

	primaryTone := "professional"
	if in.Profile != nil && in.Profile.PreferredTone != "" {
		primaryTone = in.Profile.PreferredTone
	}
	confidence := ComputeDraftConfidence(in.Extraction, in.Slots)

	set := &domain.DraftSet{
		Alternatives: []domain.DraftCandidate{},
		ModelUsed:    a.modelName,
	}

	primary, ok := a.generate(ctx, in, primaryTone, confidence)
	fallback := !ok
	if !ok {
		primary = templateDraft(in, primaryTone, confidence)
		set.ModelUsed = "template-fallback"
	}
	set.Primary = primary

	if ok {
		for _, tone := range toneVariants {
			if tone == primaryTone || len(set.Alternatives) >= maxAlternatives {
				continue
			}
			if alt, altOK := a.generate(ctx, in, tone, confidence); altOK {
				set.Alternatives = append(set.Alternatives, alt)
			}
		}
	}

	set.DurationMs = time.Since(start).Milliseconds()
	if a.metrics != nil {
		a.metrics.Observe("drafting", time.Since(start), fallback)
	}
	return set
}

func (a *DraftingAdapter) generate(ctx context.Context, in DraftInput, tone string, confidence float64) (domain.DraftCandidate, bool) {
	if a.capability == nil {
		return domain.DraftCandidate{}, false
	}

	recipient := ""
	if in.Extraction != nil && len(in.Extraction.People) > 0 {
		recipient = in.Extraction.People[0].Name
	}

	raw, err := a.capability.DraftReply(ctx, &llm.DraftRequest{
		Intent:        in.Intent,
		Text:          in.Text,
		Extraction:    in.Extraction,
		Slots:         in.Slots,
		Tone:          tone,
		RecipientHint: recipient,
	})
	if err != nil {
		logger.WithStage("drafting").WithField("tone", tone).WithError(err).Warn("draft generation failed")
		return domain.DraftCandidate{}, false
	}

	candidate := parseDraftText(raw)
	candidate.Tone = tone
	candidate.Confidence = confidence
	return candidate, true
}

// ComputeDraftConfidence scores contextual completeness: base 0.5 plus fixed
// bonuses per signal present, capped at 0.95.
func ComputeDraftConfidence(ex *domain.ExtractionResult, slots []domain.TimeSlot) float64 {
	score := draftConfidenceBase
	if ex != nil {
		if len(ex.Ask) > 10 {
			score += 0.1
		}
		if len(ex.People) > 0 {
			score += 0.1
		}
		if len(ex.DatesTimes) > 0 {
			score += 0.1
		}
		if len(ex.Topics) > 0 {
			score += 0.1
		}
		if ex.Sentiment == domain.SentimentPositive {
			score += 0.05
		}
		if ex.Urgency == domain.UrgencyHigh {
			score += 0.05
		}
	}
	if len(slots) > 0 {
		score += 0.2
	}
	if score > draftConfidenceCap {
		score = draftConfidenceCap
	}
	return score
}

var closingPhrases = []string{
	"best regards", "kind regards", "warm regards", "regards",
	"sincerely", "best,", "thank you,", "thanks,", "cheers",
}

// parseDraftText splits free prose into subject, body and signoff. The
// subject is a Subject:/Re:/Fw: prefixed first line or, failing that, the
// first non-empty line; the signoff is a trailing closing-phrase block.
func parseDraftText(raw string) domain.DraftCandidate {
	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(raw), "\r\n", "\n"), "\n")

	subject := ""
	bodyStart := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "subject:"):
			subject = strings.TrimSpace(trimmed[len("subject:"):])
		case strings.HasPrefix(lower, "re:"), strings.HasPrefix(lower, "fw:"):
			subject = trimmed
		default:
			subject = trimmed
		}
		bodyStart = i + 1
		break
	}

	signoffStart := len(lines)
	scanFrom := len(lines) - 6
	if scanFrom < bodyStart {
		scanFrom = bodyStart
	}
	for i := scanFrom; i < len(lines); i++ {
		lower := strings.ToLower(strings.TrimSpace(lines[i]))
		if lower == "" {
			continue
		}
		for _, phrase := range closingPhrases {
			if strings.HasPrefix(lower, phrase) {
				signoffStart = i
				break
			}
		}
		if signoffStart == i {
			break
		}
	}

	body := strings.TrimSpace(strings.Join(lines[bodyStart:signoffStart], "\n"))
	signoff := strings.TrimSpace(strings.Join(lines[signoffStart:], "\n"))

	return domain.DraftCandidate{
		Subject:   subject,
		Body:      body,
		Signoff:   signoff,
		WordCount: len(strings.Fields(body)),
	}
}

// templateDraft is the deterministic local fallback draft.
func templateDraft(in DraftInput, tone string, confidence float64) domain.DraftCandidate {
	greeting := "Hello,"
	if in.Extraction != nil && len(in.Extraction.People) > 0 && in.Extraction.People[0].Name != "" {
		greeting = fmt.Sprintf("Hi %s,", capitalize(in.Extraction.People[0].Name))
	}

	var b strings.Builder
	b.WriteString(greeting)
	b.WriteString("\n\nThanks for reaching out.")
	if in.Extraction != nil && in.Extraction.Ask != "" {
		fmt.Fprintf(&b, " Regarding: %s.", strings.TrimSuffix(in.Extraction.Ask, "."))
	}
	if len(in.Slots) > 0 {
		b.WriteString("\n\nWould any of these times work for you?")
		for _, slot := range in.Slots {
			label := slot.Label
			if label == "" {
				label = fmt.Sprintf("%s - %s", slot.Start, slot.End)
			}
			fmt.Fprintf(&b, "\n- %s", label)
		}
	} else {
		b.WriteString(" I will follow up with details shortly.")
	}

	body := b.String()
	return domain.DraftCandidate{
		Subject:    subjectForIntent(in.Intent),
		Body:       body,
		Signoff:    "Best regards,",
		Tone:       tone,
		Confidence: confidence,
		WordCount:  len(strings.Fields(body)),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func subjectForIntent(intent string) string {
	switch intent {
	case "interview_scheduling":
		return "Re: Interview scheduling"
	case "schedule_meeting":
		return "Re: Meeting request"
	default:
		return "Re: Your request"
	}
}
