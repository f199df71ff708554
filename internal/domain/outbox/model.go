package outbox

import (
	"errors"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// ValidStatuses lists every entry status.
var ValidStatuses = []string{StatusPending, StatusRetrying, StatusDone, StatusFailed, StatusAbandoned}

// Action types handled by the outbox worker.
const (
	ActionTypeEmail = "email"
	ActionTypeSNS   = "sns"
)

// DefaultMaxAttempts applies when an entry is enqueued without a limit.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType   = errors.New("action type is required")
	ErrUnknownActionType = errors.New("action type must be email or sns")
	ErrEmptyPayload      = errors.New("payload is required")
	ErrMissingCreatedAt  = errors.New("created_at must be set")
	ErrNotRetryable      = errors.New("entry cannot be retried")
	ErrAlreadyTerminal   = errors.New("entry is already done or abandoned")
)

// Entry is a side effect recorded alongside a state change and delivered later.
type Entry struct {
	ID              string
	ActionType      string
	Payload         string // JSON
	Status          string
	Attempts        int
	MaxAttempts     int
	NextAttemptAt   time.Time
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string // provider message ID
	ErrorMessage    string
}

// New builds a pending entry due immediately.
func New(id, actionType, payload string, now time.Time) Entry {
	return Entry{
		ID:            id,
		ActionType:    actionType,
		Payload:       payload,
		Status:        StatusPending,
		MaxAttempts:   DefaultMaxAttempts,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise; MaxAttempts defaults when unset
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.ActionType != ActionTypeEmail && e.ActionType != ActionTypeSNS {
		return ErrUnknownActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrMissingCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry returns true if the entry can be retried.
// PRE: Status and Attempts fields are set
// POST: Returns true for pending/retrying/failed with attempts < max
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying || e.Status == StatusFailed) &&
		e.Attempts < e.MaxAttempts
}

// IsDue reports whether the worker should attempt the entry at now.
func (e *Entry) IsDue(now time.Time) bool {
	return e.CanRetry() && !e.NextAttemptAt.After(now)
}

// IsTerminal returns true if the entry has reached a terminal state.
func (e *Entry) IsTerminal() bool {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return true
	}
	return e.Status == StatusFailed && e.Attempts >= e.MaxAttempts
}

// MarkAttempt records a delivery attempt.
// POST: Attempts incremented, LastAttemptedAt is now, status is retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records a failed attempt and schedules the next one.
// POST: ErrorMessage set; status is failed once attempts are exhausted,
// otherwise NextAttemptAt moves forward by the backoff delay
func (e *Entry) MarkFailed(err error, now time.Time, baseDelay, maxDelay time.Duration) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		return
	}
	e.NextAttemptAt = now.Add(e.NextRetryDelay(baseDelay, maxDelay))
}

// Retry resets an exhausted entry so the worker picks it up again.
// PRE: entry is not done or abandoned
// POST: status is pending with a fresh attempt budget, due at now
func (e *Entry) Retry(now time.Time) error {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return ErrNotRetryable
	}
	e.Status = StatusPending
	e.Attempts = 0
	e.NextAttemptAt = now
	return nil
}

// MarkAbandoned marks the entry as abandoned by an admin.
func (e *Entry) MarkAbandoned() error {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return ErrAlreadyTerminal
	}
	e.Status = StatusAbandoned
	return nil
}

// NextRetryDelay calculates the delay before the next retry attempt.
// Uses exponential backoff: 2^attempts * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay time.Duration, maxDelay time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}
