package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"assist_server/core/domain"
	portin "assist_server/core/port/in"
	portout "assist_server/core/port/out"
	"assist_server/pkg/apperr"
	"assist_server/pkg/metrics"
)

type recordingProducer struct {
	mu       sync.Mutex
	dispatch []*portout.DispatchJob
	handoffs []*domain.HandoffPayload
}

func (p *recordingProducer) PublishDispatch(ctx context.Context, job *portout.DispatchJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatch = append(p.dispatch, job)
	return nil
}

func (p *recordingProducer) PublishHandoff(ctx context.Context, payload *domain.HandoffPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handoffs = append(p.handoffs, payload)
	return nil
}

type fakeTemplateRepo struct {
	mu      sync.Mutex
	created []*portout.ReplyTemplateEntity
	err     error
}

func (r *fakeTemplateRepo) Create(ctx context.Context, t *portout.ReplyTemplateEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	t.ID = int64(len(r.created) + 1)
	r.created = append(r.created, t)
	return nil
}

func (r *fakeTemplateRepo) GetByID(ctx context.Context, userID string, id int64) (*portout.ReplyTemplateEntity, error) {
	return nil, apperr.NotFound("template")
}

func (r *fakeTemplateRepo) List(ctx context.Context, userID string, limit, offset int) ([]*portout.ReplyTemplateEntity, error) {
	return nil, nil
}

func (r *fakeTemplateRepo) Delete(ctx context.Context, userID string, id int64) error { return nil }
func (r *fakeTemplateRepo) IncrementUsage(ctx context.Context, id int64) error        { return nil }

// newTestService wires a fully local pipeline: no external capabilities, so
// every stage exercises its deterministic path.
func newTestService(clock Clock, producer portout.DispatchProducer, repo portout.ReplyTemplateRepository) (*Service, *AutoSendController) {
	catalog := DefaultCatalog()
	heuristic := NewHeuristicClassifier(catalog)
	normalizer := NewTextNormalizer(0)
	m := metrics.NewStageMetrics()

	var svc *Service
	controller := NewAutoSendController(AutoSendConfig{}, clock, func(s *domain.AutoSendSession) {
		svc.HandleCommit(s)
	})

	svc = NewService(ServiceDeps{
		Normalizer: normalizer,
		Classifier: NewClassificationAdapter(nil, heuristic, catalog, m),
		Extractor:  NewExtractionAdapter(nil, NewExtractionCache(60*time.Second, clock), normalizer, "", m),
		Drafter:    NewDraftingAdapter(nil, "", m),
		Aggregator: NewSuggestionAggregator(6),
		AutoSend:   controller,
		Templates:  repo,
		Producer:   producer,
		Metrics:    m,
	})
	return svc, controller
}

func TestProcessFullPipeline(t *testing.T) {
	svc, _ := newTestService(newFakeClock(), &recordingProducer{}, nil)

	got, err := svc.Process(context.Background(), &portin.ProcessRequest{
		AssistRequest: portin.AssistRequest{
			Text: "Please schedule an interview with jane@example.com tomorrow at 2pm, it is urgent",
		},
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if got.Classification == nil || got.Classification.Intent != "interview_scheduling" {
		t.Errorf("classification = %+v", got.Classification)
	}
	if got.Extraction == nil || len(got.Extraction.People) == 0 {
		t.Errorf("extraction missed the email address: %+v", got.Extraction)
	}
	if got.Drafts == nil || got.Drafts.Primary.Body == "" {
		t.Error("expected a draft body")
	}
	if got.Suggestions == nil || len(got.Suggestions.All) == 0 {
		t.Error("expected suggestions")
	}
	if got.RequestID == "" {
		t.Error("expected a request id")
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Errorf("aggregate confidence = %v", got.Confidence)
	}
	if got.AutoSend != nil {
		t.Error("auto-send must not start unless the request opts in")
	}
}

func TestProcessRejectsEmptyText(t *testing.T) {
	svc, _ := newTestService(newFakeClock(), nil, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.Process(context.Background(), &portin.ProcessRequest{
			AssistRequest: portin.AssistRequest{Text: text},
		})
		appErr := apperr.AsAppError(err)
		if appErr.Code != apperr.CodeMissingField {
			t.Errorf("text %q: code = %s, want %s", text, appErr.Code, apperr.CodeMissingField)
		}
	}
}

func TestAutoSendLifecycleThroughService(t *testing.T) {
	clock := newFakeClock()
	producer := &recordingProducer{}
	svc, _ := newTestService(clock, producer, nil)
	ctx := context.Background()

	started, err := svc.StartAutoSend(ctx, &portin.AutoSendStartRequest{
		ContextKey: "thread-7",
		DraftRef:   "draft-7",
		Confidence: 0.91,
		Text:       "this text is long enough to pass the gate",
	})
	if err != nil {
		t.Fatalf("StartAutoSend() error = %v", err)
	}
	if !started.Started || started.Session == nil {
		t.Fatalf("result = %+v, want started session", started)
	}

	clock.Advance(10 * time.Second)

	session, err := svc.GetAutoSend(ctx, "thread-7")
	if err != nil {
		t.Fatalf("GetAutoSend() error = %v", err)
	}
	if session.State != domain.AutoSendCommitted {
		t.Errorf("state = %s, want committed", session.State)
	}

	producer.mu.Lock()
	dispatched := len(producer.dispatch)
	producer.mu.Unlock()
	if dispatched != 1 {
		t.Fatalf("dispatch jobs = %d, want 1", dispatched)
	}
	if producer.dispatch[0].DraftRef != "draft-7" {
		t.Errorf("dispatch job = %+v", producer.dispatch[0])
	}
}

func TestStartAutoSendBelowGate(t *testing.T) {
	svc, _ := newTestService(newFakeClock(), &recordingProducer{}, nil)

	got, err := svc.StartAutoSend(context.Background(), &portin.AutoSendStartRequest{
		ContextKey: "thread-8",
		DraftRef:   "draft-8",
		Confidence: 0.5,
		Text:       "long enough text for the length gate",
	})
	if err != nil {
		t.Fatalf("StartAutoSend() error = %v", err)
	}
	if got.Started || got.Session != nil {
		t.Errorf("result = %+v, want rejected", got)
	}
	if got.Reason == "" {
		t.Error("rejection must carry a reason")
	}
}

func TestCancelAutoSendUnknownContext(t *testing.T) {
	svc, _ := newTestService(newFakeClock(), nil, nil)

	_, err := svc.CancelAutoSend(context.Background(), "never-started")
	if apperr.AsAppError(err).Code != apperr.CodeNotFound {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestSaveTemplate(t *testing.T) {
	repo := &fakeTemplateRepo{}
	svc, _ := newTestService(newFakeClock(), nil, repo)
	ctx := context.Background()

	got, err := svc.SaveTemplate(ctx, &portin.SaveTemplateRequest{
		UserID:  "user-1",
		Name:    "interview confirm",
		Subject: "Re: Interview",
		Body:    "Happy to confirm the interview slot.",
	})
	if err != nil {
		t.Fatalf("SaveTemplate() error = %v", err)
	}
	if got.ID != 1 || got.Category != "general" {
		t.Errorf("result = %+v", got)
	}

	_, err = svc.SaveTemplate(ctx, &portin.SaveTemplateRequest{Name: "", Body: "x"})
	if apperr.AsAppError(err).Code != apperr.CodeMissingField {
		t.Errorf("missing name: error = %v", err)
	}
}

func TestSaveTemplateStorageDown(t *testing.T) {
	repo := &fakeTemplateRepo{err: apperr.StorageUnavailable("insert template", errors.New("connection refused"))}
	svc, _ := newTestService(newFakeClock(), nil, repo)

	_, err := svc.SaveTemplate(context.Background(), &portin.SaveTemplateRequest{
		Name: "t", Body: "body",
	})
	appErr := apperr.AsAppError(err)
	if appErr.Code != apperr.CodeStorageUnavailable {
		t.Fatalf("code = %s, want %s", appErr.Code, apperr.CodeStorageUnavailable)
	}
	if appErr.HTTPStatus() != 503 {
		t.Errorf("status = %d, want 503", appErr.HTTPStatus())
	}
}
