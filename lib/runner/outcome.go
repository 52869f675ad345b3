package runner

import (
	"fmt"
	"time"
)

type OutcomeKind string

const (
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeSent    OutcomeKind = "sent"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the tri-state result of one run. Callers branch on Kind; upstream
// failures never surface as an error return.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	Reason    string      `json:"reason,omitempty"`  // set when skipped
	NextRunAt time.Time   `json:"next_run_at"`       // set when sent
	Message   string      `json:"message,omitempty"` // set when failed
}

func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

func Sent(nextRunAt time.Time) Outcome {
	return Outcome{Kind: OutcomeSent, NextRunAt: nextRunAt}
}

func Failed(message string) Outcome {
	return Outcome{Kind: OutcomeFailed, Message: message}
}

// UpstreamError marks a failed or malformed analysis-service response.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("upstream analysis failed: %v", e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// RecipientResolutionError marks a user without a usable contact address.
type RecipientResolutionError struct {
	UserID uint
	Err    error
}

func (e *RecipientResolutionError) Error() string {
	return fmt.Sprintf("no verified contact address for user %d", e.UserID)
}
func (e *RecipientResolutionError) Unwrap() error { return e.Err }

// PersistenceError marks a failed final write. Unlike the categories above it
// crosses the Run boundary, as the error return.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
