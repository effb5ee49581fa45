package pipeline

import (
	"sync"
	"testing"
	"time"

	"assist_server/core/domain"
)

type commitRecorder struct {
	mu       sync.Mutex
	sessions []*domain.AutoSendSession
}

func (r *commitRecorder) commit(s *domain.AutoSendSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *commitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func newTestController(clock Clock, rec *commitRecorder) *AutoSendController {
	return NewAutoSendController(AutoSendConfig{
		Threshold:        0.85,
		CountdownSeconds: 10,
		MinTextLength:    20,
	}, clock, rec.commit)
}

func startInput() StartInput {
	return StartInput{
		ContextKey: "thread-42",
		DraftRef:   "draft-1",
		Confidence: 0.92,
		TextLength: 40,
	}
}

func TestAutoSendGates(t *testing.T) {
	tests := []struct {
		name        string
		confidence  float64
		textLength  int
		wantStarted bool
	}{
		{"confidence and length pass", 0.92, 40, true},
		{"at threshold passes", 0.85, 20, true},
		{"confidence below threshold", 0.80, 40, false},
		{"text too short", 0.95, 19, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(newFakeClock(), &commitRecorder{})
			session, started := c.Start(StartInput{
				ContextKey: "ctx",
				DraftRef:   "d",
				Confidence: tt.confidence,
				TextLength: tt.textLength,
			})
			if started != tt.wantStarted {
				t.Fatalf("started = %v, want %v", started, tt.wantStarted)
			}
			if started && session.State != domain.AutoSendCounting {
				t.Errorf("state = %s, want counting", session.State)
			}
		})
	}
}

func TestAutoSendCommitAfterCountdown(t *testing.T) {
	clock := newFakeClock()
	rec := &commitRecorder{}
	c := newTestController(clock, rec)

	session, started := c.Start(startInput())
	if !started {
		t.Fatal("expected start")
	}
	if session.RemainingSeconds != 10 {
		t.Fatalf("remaining = %d, want 10", session.RemainingSeconds)
	}

	clock.Advance(9 * time.Second)
	if rec.count() != 0 {
		t.Fatal("committed before countdown elapsed")
	}
	mid, _ := c.Get("thread-42")
	if mid.State != domain.AutoSendCounting || mid.RemainingSeconds != 1 {
		t.Errorf("mid countdown = %s/%d, want counting/1", mid.State, mid.RemainingSeconds)
	}

	clock.Advance(1 * time.Second)
	if rec.count() != 1 {
		t.Fatalf("commits = %d, want exactly 1", rec.count())
	}
	final, _ := c.Get("thread-42")
	if final.State != domain.AutoSendCommitted || final.RemainingSeconds != 0 {
		t.Errorf("final = %s/%d, want committed/0", final.State, final.RemainingSeconds)
	}

	// Ticks stop after the terminal state: no double commit.
	clock.Advance(30 * time.Second)
	if rec.count() != 1 {
		t.Errorf("commits after extra time = %d, want 1", rec.count())
	}
}

func TestAutoSendStartIdempotent(t *testing.T) {
	clock := newFakeClock()
	c := newTestController(clock, &commitRecorder{})

	first, _ := c.Start(startInput())
	clock.Advance(4 * time.Second)
	second, started := c.Start(startInput())

	if !started {
		t.Fatal("second start must report the active session")
	}
	if second.ID != first.ID {
		t.Error("second start must not create a new session")
	}
	if second.RemainingSeconds != 6 {
		t.Errorf("remaining = %d, want 6: restart must not reset the countdown", second.RemainingSeconds)
	}
}

func TestAutoSendCancelStopsCommit(t *testing.T) {
	clock := newFakeClock()
	rec := &commitRecorder{}
	c := newTestController(clock, rec)

	c.Start(startInput())
	clock.Advance(5 * time.Second)

	cancelled := c.Cancel("thread-42")
	if cancelled.State != domain.AutoSendCancelled {
		t.Fatalf("state = %s, want cancelled", cancelled.State)
	}

	clock.Advance(60 * time.Second)
	if rec.count() != 0 {
		t.Errorf("commits after cancel = %d, want 0", rec.count())
	}
}

func TestAutoSendCancelIdempotent(t *testing.T) {
	clock := newFakeClock()
	c := newTestController(clock, &commitRecorder{})

	if got := c.Cancel("never-seen"); got != nil {
		t.Errorf("cancel unknown context = %+v, want nil", got)
	}

	c.Start(startInput())
	first := c.Cancel("thread-42")
	second := c.Cancel("thread-42")
	if first.State != domain.AutoSendCancelled || second.State != domain.AutoSendCancelled {
		t.Error("repeated cancel must stay cancelled")
	}
}

func TestAutoSendNewSessionAfterTerminal(t *testing.T) {
	clock := newFakeClock()
	rec := &commitRecorder{}
	c := newTestController(clock, rec)

	first, _ := c.Start(startInput())
	c.Cancel("thread-42")

	second, started := c.Start(startInput())
	if !started {
		t.Fatal("expected new session after cancel")
	}
	if second.ID == first.ID {
		t.Error("terminal session must be replaced, not resumed")
	}

	clock.Advance(10 * time.Second)
	if rec.count() != 1 {
		t.Errorf("commits = %d, want 1 from the second session", rec.count())
	}
}

func TestAutoSendSnapshotsAreCopies(t *testing.T) {
	clock := newFakeClock()
	c := newTestController(clock, &commitRecorder{})

	snapshot, _ := c.Start(startInput())
	snapshot.State = domain.AutoSendCommitted
	snapshot.RemainingSeconds = -99

	current, _ := c.Get("thread-42")
	if current.State != domain.AutoSendCounting || current.RemainingSeconds != 10 {
		t.Error("mutating a returned snapshot must not affect controller state")
	}
}
