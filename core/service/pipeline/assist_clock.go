// Package pipeline implements the request classification and
// confidence-gated drafting pipeline.
package pipeline

import "time"

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall-clock reads and timer scheduling so the TTL cache and
// the auto-send countdown are testable without real delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// NewClock returns the wall-clock implementation.
func NewClock() Clock {
	return realClock{}
}
