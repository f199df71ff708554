package operations

import (
	"errors"
	"strings"
	"time"
)

// Task statuses.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

// Errors shared by every operational record.
var (
	ErrEmptyServerID     = errors.New("server ID is required")
	ErrEmptyTitle        = errors.New("title is required")
	ErrTitleTooLong      = errors.New("title cannot exceed 200 characters")
	ErrInvalidTransition = errors.New("task status transition not allowed")
	ErrInvalidTaskStatus = errors.New("task status must be todo, in_progress or done")
)

// MaxTitleLength bounds titles and names on every record.
const MaxTitleLength = 200

var taskTransitions = map[string][]string{
	TaskTodo:       {TaskInProgress, TaskDone},
	TaskInProgress: {TaskTodo, TaskDone},
	TaskDone:       {TaskInProgress},
}

// Task is a to-do item a server tracks for an event or its organisation.
type Task struct {
	ID          string
	ServerID    string
	EventID     string // optional
	Title       string
	Description string
	Assignee    string
	DueOn       time.Time // zero when undated
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Task has valid data.
// PRE: Task struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Task) Validate() error {
	if t.ServerID == "" {
		return ErrEmptyServerID
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if t.Status != TaskTodo && t.Status != TaskInProgress && t.Status != TaskDone {
		return ErrInvalidTaskStatus
	}
	return nil
}

// TransitionTo moves the task to next.
// PRE: next is reachable from the current status
// POST: Status is next, UpdatedAt is now
func (t *Task) TransitionTo(next string, now time.Time) error {
	if next != TaskTodo && next != TaskInProgress && next != TaskDone {
		return ErrInvalidTaskStatus
	}
	allowed := false
	for _, s := range taskTransitions[t.Status] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}
	t.Status = next
	t.UpdatedAt = now
	return nil
}

// IsOverdue reports whether an open, dated task is past its due day.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Status == TaskDone || t.DueOn.IsZero() {
		return false
	}
	return truncateDay(now).After(truncateDay(t.DueOn))
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
