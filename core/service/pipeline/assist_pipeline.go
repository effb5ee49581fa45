package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"assist_server/core/domain"
	portin "assist_server/core/port/in"
	portout "assist_server/core/port/out"
	"assist_server/pkg/apperr"
	"assist_server/pkg/logger"
	"assist_server/pkg/metrics"
)

// Aggregate confidence weights: classification carries more signal than
// drafting completeness.
const (
	aggregateClassifyWeight = 0.6
	aggregateDraftWeight    = 0.4
)

// Service orchestrates the pipeline stages and implements the inbound
// AssistService port.
type Service struct {
	normalizer *TextNormalizer
	classifier *ClassificationAdapter
	extractor  *ExtractionAdapter
	drafter    *DraftingAdapter
	aggregator *SuggestionAggregator
	autosend   *AutoSendController
	templates  portout.ReplyTemplateRepository
	producer   portout.DispatchProducer
	metrics    *metrics.StageMetrics
}

// ServiceDeps wires the stage components. Templates and producer may be nil;
// the corresponding operations then degrade or report storage unavailable.
type ServiceDeps struct {
	Normalizer *TextNormalizer
	Classifier *ClassificationAdapter
	Extractor  *ExtractionAdapter
	Drafter    *DraftingAdapter
	Aggregator *SuggestionAggregator
	AutoSend   *AutoSendController
	Templates  portout.ReplyTemplateRepository
	Producer   portout.DispatchProducer
	Metrics    *metrics.StageMetrics
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		normalizer: deps.Normalizer,
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		drafter:    deps.Drafter,
		aggregator: deps.Aggregator,
		autosend:   deps.AutoSend,
		templates:  deps.Templates,
		producer:   deps.Producer,
		metrics:    deps.Metrics,
	}
}

var _ portin.AssistService = (*Service)(nil)

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.MissingField("text")
	}
	return nil
}

// Classify runs normalization plus the classification stage.
func (s *Service) Classify(ctx context.Context, req *portin.AssistRequest) (*domain.ClassificationResult, error) {
	if err := validateText(req.Text); err != nil {
		return nil, err
	}
	normalized := s.normalizer.Normalize(req.Text)
	return s.classifier.Classify(ctx, normalized, req.Context), nil
}

// Extract runs the extraction stage. The adapter handles caching and
// normalization internally because the cache key is the raw text.
func (s *Service) Extract(ctx context.Context, req *portin.AssistRequest) (*domain.ExtractionResult, error) {
	if err := validateText(req.Text); err != nil {
		return nil, err
	}
	return s.extractor.Extract(ctx, req.Text, req.ThreadContext), nil
}

// Draft runs extraction (cached) then the drafting stage. When the caller
// does not pin an intent, classification chooses one.
func (s *Service) Draft(ctx context.Context, req *portin.DraftRequest) (*domain.DraftSet, error) {
	if err := validateText(req.Text); err != nil {
		return nil, err
	}

	normalized := s.normalizer.Normalize(req.Text)
	extraction := s.extractor.Extract(ctx, req.Text, req.ThreadContext)

	intent := req.Intent
	if intent == "" {
		intent = s.classifier.Classify(ctx, normalized, req.Context).Intent
	}

	var profile *domain.Profile
	if req.Context != nil {
		profile = req.Context.UserProfile
	}

	return s.drafter.Draft(ctx, DraftInput{
		Intent:     intent,
		Text:       normalized,
		Extraction: extraction,
		Slots:      req.Slots,
		Profile:    profile,
	}), nil
}

// Suggest runs classification and extraction, then aggregates suggestions.
// The drafting confidence input is computed locally without generating text.
func (s *Service) Suggest(ctx context.Context, req *portin.AssistRequest) (*domain.SuggestionSet, error) {
	if err := validateText(req.Text); err != nil {
		return nil, err
	}

	normalized := s.normalizer.Normalize(req.Text)
	classification := s.classifier.Classify(ctx, normalized, req.Context)
	extraction := s.extractor.Extract(ctx, req.Text, req.ThreadContext)
	draftConfidence := ComputeDraftConfidence(extraction, nil)

	return s.aggregator.Aggregate(classification, extraction, normalized, draftConfidence), nil
}

// Process runs the full pipeline: classification and extraction in parallel,
// then drafting, then aggregation and the auto-send evaluation.
func (s *Service) Process(ctx context.Context, req *portin.ProcessRequest) (*portin.ProcessResult, error) {
	if err := validateText(req.Text); err != nil {
		return nil, err
	}

	start := time.Now()
	requestID := uuid.New().String()
	normalized := s.normalizer.Normalize(req.Text)

	var (
		wg             sync.WaitGroup
		classification *domain.ClassificationResult
		extraction     *domain.ExtractionResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		classification = s.classifier.Classify(ctx, normalized, req.Context)
	}()
	go func() {
		defer wg.Done()
		extraction = s.extractor.Extract(ctx, req.Text, req.ThreadContext)
	}()
	wg.Wait()

	var profile *domain.Profile
	if req.Context != nil {
		profile = req.Context.UserProfile
	}
	drafts := s.drafter.Draft(ctx, DraftInput{
		Intent:     classification.Intent,
		Text:       normalized,
		Extraction: extraction,
		Slots:      req.Slots,
		Profile:    profile,
	})

	suggestions := s.aggregator.Aggregate(classification, extraction, normalized, drafts.Primary.Confidence)

	confidence := aggregateClassifyWeight*classification.Confidence + aggregateDraftWeight*drafts.Primary.Confidence

	result := &portin.ProcessResult{
		RequestID:      requestID,
		NormalizedText: normalized,
		Classification: classification,
		Extraction:     extraction,
		Drafts:         drafts,
		Suggestions:    suggestions,
		Confidence:     confidence,
	}

	if req.AllowAutoSend && req.ContextKey != "" {
		if session, started := s.autosend.Start(StartInput{
			ContextKey: req.ContextKey,
			DraftRef:   requestID,
			Confidence: confidence,
			TextLength: len(normalized),
		}); started {
			result.AutoSend = session
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	if s.metrics != nil {
		s.metrics.Observe("pipeline", time.Since(start), classification.IsFallback)
	}

	logger.WithStage("pipeline").
		WithField("request_id", requestID).
		WithField("intent", classification.Intent).
		WithField("confidence", confidence).
		WithDuration(time.Since(start)).
		Info("request processed")

	return result, nil
}

// StartAutoSend starts a countdown from an explicit API call.
func (s *Service) StartAutoSend(ctx context.Context, req *portin.AutoSendStartRequest) (*portin.AutoSendStartResult, error) {
	if req.ContextKey == "" {
		return nil, apperr.MissingField("context_key")
	}
	if req.DraftRef == "" {
		return nil, apperr.MissingField("draft_ref")
	}

	session, started := s.autosend.Start(StartInput{
		ContextKey: req.ContextKey,
		DraftRef:   req.DraftRef,
		Confidence: req.Confidence,
		TextLength: len(strings.TrimSpace(req.Text)),
	})
	if !started {
		return &portin.AutoSendStartResult{
			Started: false,
			Reason:  "confidence or text length below auto-send gates",
		}, nil
	}
	return &portin.AutoSendStartResult{Started: true, Session: session}, nil
}

// CancelAutoSend cancels the countdown for a context. Unknown contexts are
// not an error: cancel is idempotent and safe to spam from a UI.
func (s *Service) CancelAutoSend(ctx context.Context, contextKey string) (*domain.AutoSendSession, error) {
	if contextKey == "" {
		return nil, apperr.MissingField("context_key")
	}
	session := s.autosend.Cancel(contextKey)
	if session == nil {
		return nil, apperr.NotFound("auto-send session")
	}
	return session, nil
}

// GetAutoSend returns the current session snapshot for a context.
func (s *Service) GetAutoSend(ctx context.Context, contextKey string) (*domain.AutoSendSession, error) {
	if contextKey == "" {
		return nil, apperr.MissingField("context_key")
	}
	session, ok := s.autosend.Get(contextKey)
	if !ok {
		return nil, apperr.NotFound("auto-send session")
	}
	return session, nil
}

// SaveTemplate persists a draft as a reusable template.
func (s *Service) SaveTemplate(ctx context.Context, req *portin.SaveTemplateRequest) (*portin.SaveTemplateResult, error) {
	if req.Name == "" {
		return nil, apperr.MissingField("name")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, apperr.MissingField("body")
	}
	if s.templates == nil {
		return nil, apperr.StorageUnavailable("save template", nil)
	}

	category := req.Category
	if category == "" {
		category = "general"
	}
	entity := &portout.ReplyTemplateEntity{
		UserID:   req.UserID,
		Name:     req.Name,
		Category: category,
		Subject:  req.Subject,
		Body:     req.Body,
		Tags:     req.Tags,
	}
	if err := s.templates.Create(ctx, entity); err != nil {
		return nil, err
	}

	return &portin.SaveTemplateResult{
		ID:       entity.ID,
		Name:     entity.Name,
		Category: entity.Category,
	}, nil
}

// HandleCommit is the auto-send commit hook: it publishes the dispatch job
// exactly once per committed session.
func (s *Service) HandleCommit(session *domain.AutoSendSession) {
	if s.producer == nil {
		logger.WithStage("autosend").WithField("session_id", session.ID).Warn("no dispatch producer wired, send dropped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.producer.PublishDispatch(ctx, &portout.DispatchJob{
		SessionID:  session.ID,
		ContextKey: session.ContextKey,
		DraftRef:   session.DraftRef,
		Confidence: session.Confidence,
	})
	if err != nil {
		logger.WithStage("autosend").WithField("session_id", session.ID).WithError(err).Error("dispatch publish failed")
	}
}
