package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ecocrew/internal/domain/event"
	"ecocrew/internal/domain/impact"
)

// EventStoreForImpact defines the event lookups LogImpact needs.
type EventStoreForImpact interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	IsRegistered(ctx context.Context, eventID, participantID string) (bool, error)
}

// ImpactStoreForLog persists impact logs.
type ImpactStoreForLog interface {
	Save(ctx context.Context, l impact.Log) error
}

// LogImpactInput carries input for the orchestrator.
type LogImpactInput struct {
	ParticipantID  string
	EventID        string
	TrashKg        float64
	RecyclablesKg  float64
	VolunteerHours float64
	TreesPlanted   int
	Notes          string
}

// LogImpactDeps holds dependencies for LogImpact.
type LogImpactDeps struct {
	EventStore  EventStoreForImpact
	ImpactStore ImpactStoreForLog
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteLogImpact records a participant's impact at an event.
// PRE: participant registered for the event; event has started
// POST: log persisted; Points derive from the metrics
func ExecuteLogImpact(ctx context.Context, input LogImpactInput, deps LogImpactDeps) (impact.Log, error) {
	now := deps.Now()
	l := impact.Log{
		ID:             deps.GenerateID(),
		ParticipantID:  input.ParticipantID,
		EventID:        input.EventID,
		TrashKg:        input.TrashKg,
		RecyclablesKg:  input.RecyclablesKg,
		VolunteerHours: input.VolunteerHours,
		TreesPlanted:   input.TreesPlanted,
		Notes:          strings.TrimSpace(input.Notes),
		LoggedAt:       now,
	}
	if err := l.Validate(); err != nil {
		return impact.Log{}, err
	}

	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return impact.Log{}, err
	}
	registered, err := deps.EventStore.IsRegistered(ctx, ev.ID, input.ParticipantID)
	if err != nil {
		return impact.Log{}, err
	}
	if !registered {
		return impact.Log{}, event.ErrNotRegistered
	}
	if err := ev.CanLogImpact(now); err != nil {
		return impact.Log{}, err
	}

	if err := deps.ImpactStore.Save(ctx, l); err != nil {
		return impact.Log{}, err
	}

	slog.Info("impact_event", "event", "logged", "participant_id", l.ParticipantID, "event_id", l.EventID, "points", l.Points())
	return l, nil
}
