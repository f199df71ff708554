package event

import (
	"errors"
	"strings"
	"time"
)

// Event statuses
const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatuses contains all valid event statuses.
var ValidStatuses = []string{StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled}

// MaxTitleLength bounds event titles.
const MaxTitleLength = 120

// Domain errors
var (
	ErrEmptyServerID     = errors.New("event organizer is required")
	ErrEmptyTitle        = errors.New("event title cannot be empty")
	ErrTitleTooLong      = errors.New("event title cannot exceed 120 characters")
	ErrEmptyLocation     = errors.New("event location cannot be empty")
	ErrMissingStart      = errors.New("event start time is required")
	ErrEndBeforeStart    = errors.New("event end must be after its start")
	ErrNegativeCapacity  = errors.New("event capacity cannot be negative")
	ErrInvalidStatus     = errors.New("event status must be one of: upcoming, ongoing, completed, cancelled")
	ErrInvalidTransition = errors.New("event status transition not allowed")
	ErrNotJoinable       = errors.New("event is not open for registration")
	ErrEventFull         = errors.New("event has reached capacity")
	ErrNotLeavable       = errors.New("registration can only be withdrawn before the event starts")
	ErrNotStarted        = errors.New("impact can only be logged once the event has started")
	ErrAlreadyRegistered = errors.New("participant is already registered for this event")
	ErrNotRegistered     = errors.New("participant is not registered for this event")
)

// Event is a cleanup event organized by a server.
// Description supports Markdown formatting.
type Event struct {
	ID          string
	ServerID    string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int // 0 = unlimited
	Status      string
	CreatedAt   time.Time
}

// Registration records that a participant joined an event.
type Registration struct {
	ID            string
	EventID       string
	ParticipantID string
	JoinedAt      time.Time
}

// transitions lists the allowed status moves.
var transitions = map[string][]string{
	StatusUpcoming: {StatusOngoing, StatusCancelled},
	StatusOngoing:  {StatusCompleted, StatusCancelled},
}

// Validate checks if the Event has valid data.
// PRE: Event struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Event) Validate() error {
	if e.ServerID == "" {
		return ErrEmptyServerID
	}
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(e.Location) == "" {
		return ErrEmptyLocation
	}
	if e.StartsAt.IsZero() {
		return ErrMissingStart
	}
	if !e.EndsAt.IsZero() && !e.EndsAt.After(e.StartsAt) {
		return ErrEndBeforeStart
	}
	if e.Capacity < 0 {
		return ErrNegativeCapacity
	}
	if !isValidStatus(e.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// TransitionTo moves the event to the target status.
// PRE: target is reachable from the current status
// POST: Status is target
func (e *Event) TransitionTo(target string) error {
	if !isValidStatus(target) {
		return ErrInvalidStatus
	}
	for _, next := range transitions[e.Status] {
		if next == target {
			e.Status = target
			return nil
		}
	}
	return ErrInvalidTransition
}

// CanJoin checks whether another participant can register.
// INVARIANT: Event fields are not mutated
func (e *Event) CanJoin(registered int) error {
	if e.Status != StatusUpcoming {
		return ErrNotJoinable
	}
	if e.IsFull(registered) {
		return ErrEventFull
	}
	return nil
}

// IsFull returns true when a capacity is set and reached.
func (e *Event) IsFull(registered int) bool {
	return e.Capacity > 0 && registered >= e.Capacity
}

// CanLeave checks whether a registration may be withdrawn.
func (e *Event) CanLeave() error {
	if e.Status != StatusUpcoming {
		return ErrNotLeavable
	}
	return nil
}

// CanLogImpact checks whether impact may be recorded against this event at now.
func (e *Event) CanLogImpact(now time.Time) error {
	switch e.Status {
	case StatusOngoing, StatusCompleted:
		return nil
	case StatusUpcoming:
		if !now.Before(e.StartsAt) {
			return nil
		}
	}
	return ErrNotStarted
}

func isValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
