package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"assist_server/core/domain"
	"assist_server/pkg/logger"
)

const (
	DefaultAutoSendThreshold = 0.85
	DefaultAutoSendCountdown = 10
	DefaultAutoSendMinChars  = 20
)

// AutoSendConfig holds the gating and countdown parameters.
type AutoSendConfig struct {
	Threshold        float64
	CountdownSeconds int
	MinTextLength    int
}

func (c *AutoSendConfig) applyDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = DefaultAutoSendThreshold
	}
	if c.CountdownSeconds <= 0 {
		c.CountdownSeconds = DefaultAutoSendCountdown
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = DefaultAutoSendMinChars
	}
}

// CommitFunc receives the committed session snapshot exactly once.
type CommitFunc func(session *domain.AutoSendSession)

type autoSendSession struct {
	snapshot domain.AutoSendSession
	timer    Timer
}

// AutoSendController runs confidence-gated send countdowns. At most one
// active session exists per context key; start and cancel are idempotent,
// and the tick/cancel race is serialized so a cancelled session never
// commits.
type AutoSendController struct {
	mu       sync.Mutex
	cfg      AutoSendConfig
	clock    Clock
	commit   CommitFunc
	sessions map[string]*autoSendSession
}

func NewAutoSendController(cfg AutoSendConfig, clock Clock, commit CommitFunc) *AutoSendController {
	cfg.applyDefaults()
	if clock == nil {
		clock = NewClock()
	}
	return &AutoSendController{
		cfg:      cfg,
		clock:    clock,
		commit:   commit,
		sessions: make(map[string]*autoSendSession),
	}
}

// StartInput describes one start attempt.
type StartInput struct {
	ContextKey string
	DraftRef   string
	Confidence float64
	TextLength int
}

// Eligible reports whether a start attempt passes the confidence and length
// gates.
func (c *AutoSendController) Eligible(confidence float64, textLength int) bool {
	return confidence >= c.cfg.Threshold && textLength >= c.cfg.MinTextLength
}

// Start begins a countdown for the context, or returns the already-active
// session unchanged: a second start while counting is a no-op, it never
// resets the remaining time. Returns (nil, false) when the gates reject the
// attempt.
func (c *AutoSendController) Start(in StartInput) (*domain.AutoSendSession, bool) {
	if !c.Eligible(in.Confidence, in.TextLength) {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.sessions[in.ContextKey]; ok && existing.snapshot.State == domain.AutoSendCounting {
		snapshot := existing.snapshot
		return &snapshot, true
	}

	session := &autoSendSession{
		snapshot: domain.AutoSendSession{
			ID:               uuid.New().String(),
			ContextKey:       in.ContextKey,
			DraftRef:         in.DraftRef,
			Confidence:       in.Confidence,
			CountdownSeconds: c.cfg.CountdownSeconds,
			RemainingSeconds: c.cfg.CountdownSeconds,
			State:            domain.AutoSendCounting,
			StartedAt:        c.clock.Now(),
		},
	}
	c.sessions[in.ContextKey] = session
	c.scheduleTick(in.ContextKey, session.snapshot.ID)

	logger.WithStage("autosend").
		WithField("context_key", in.ContextKey).
		WithField("confidence", in.Confidence).
		Info("countdown started")

	snapshot := session.snapshot
	return &snapshot, true
}

// Cancel stops the countdown for the context. Cancelling an unknown context
// or an already-terminal session is a harmless no-op; the returned snapshot
// is nil when the context has never had a session.
func (c *AutoSendController) Cancel(contextKey string) *domain.AutoSendSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[contextKey]
	if !ok {
		return nil
	}
	if session.snapshot.State == domain.AutoSendCounting {
		if session.timer != nil {
			session.timer.Stop()
		}
		session.snapshot.State = domain.AutoSendCancelled
		logger.WithStage("autosend").WithField("context_key", contextKey).Info("countdown cancelled")
	}
	snapshot := session.snapshot
	return &snapshot
}

// Get returns the current session snapshot for the context.
func (c *AutoSendController) Get(contextKey string) (*domain.AutoSendSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[contextKey]
	if !ok {
		return nil, false
	}
	snapshot := session.snapshot
	return &snapshot, true
}

// scheduleTick must be called with the mutex held.
func (c *AutoSendController) scheduleTick(contextKey, sessionID string) {
	session := c.sessions[contextKey]
	session.timer = c.clock.AfterFunc(time.Second, func() {
		c.tick(contextKey, sessionID)
	})
}

// tick decrements the countdown. The session ID guard drops ticks that were
// in flight when the session was replaced; the state guard drops ticks that
// lost the race against Cancel.
func (c *AutoSendController) tick(contextKey, sessionID string) {
	c.mu.Lock()

	session, ok := c.sessions[contextKey]
	if !ok || session.snapshot.ID != sessionID || session.snapshot.State != domain.AutoSendCounting {
		c.mu.Unlock()
		return
	}

	session.snapshot.RemainingSeconds--
	if session.snapshot.RemainingSeconds > 0 {
		c.scheduleTick(contextKey, sessionID)
		c.mu.Unlock()
		return
	}

	session.snapshot.RemainingSeconds = 0
	session.snapshot.State = domain.AutoSendCommitted
	snapshot := session.snapshot
	c.mu.Unlock()

	logger.WithStage("autosend").
		WithField("context_key", contextKey).
		WithField("draft_ref", snapshot.DraftRef).
		Info("countdown elapsed, committing send")
	if c.commit != nil {
		c.commit(&snapshot)
	}
}
