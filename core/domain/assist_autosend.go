package domain

import "time"

// AutoSendState is the lifecycle state of an auto-send session.
type AutoSendState string

const (
	AutoSendIdle      AutoSendState = "idle"
	AutoSendCounting  AutoSendState = "counting"
	AutoSendCommitted AutoSendState = "committed"
	AutoSendCancelled AutoSendState = "cancelled"
)

// Terminal reports whether the state ends the session's lifecycle.
func (s AutoSendState) Terminal() bool {
	return s == AutoSendCommitted || s == AutoSendCancelled
}

// AutoSendSession is a snapshot of one countdown toward an autonomous send.
// At most one session is active per conversation context; the controller
// enforces this and hands out immutable snapshots.
type AutoSendSession struct {
	ID               string        `json:"id"`
	ContextKey       string        `json:"context_key"`
	DraftRef         string        `json:"draft_ref"`
	Confidence       float64       `json:"confidence"`
	CountdownSeconds int           `json:"countdown_seconds"`
	RemainingSeconds int           `json:"remaining_seconds"`
	State            AutoSendState `json:"state"`
	StartedAt        time.Time     `json:"started_at"`
}
