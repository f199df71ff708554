package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ecocrew/internal/domain/account"
	"ecocrew/internal/domain/event"
	"ecocrew/internal/domain/serverprofile"
)

// EventStoreForOrchestrator defines the event store methods orchestrators use.
type EventStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, e event.Event) error
	Register(ctx context.Context, reg event.Registration, capacity int) error
	Unregister(ctx context.Context, eventID, participantID string) error
	CountRegistrations(ctx context.Context, eventID string) (int, error)
}

// CreateEventInput carries input for the orchestrator.
type CreateEventInput struct {
	Actor       Actor
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int
}

// CreateEventDeps holds dependencies for CreateEvent.
type CreateEventDeps struct {
	ServerStore ServerProfileLookup
	EventStore  EventStoreForOrchestrator
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteCreateEvent publishes a new upcoming event for the caller's server.
// PRE: caller owns an active server profile
// POST: event persisted with Status=upcoming
func ExecuteCreateEvent(ctx context.Context, input CreateEventInput, deps CreateEventDeps) (event.Event, error) {
	srv, err := serverForActor(ctx, deps.ServerStore, input.Actor.AccountID)
	if err != nil {
		return event.Event{}, err
	}
	if !srv.Active {
		return event.Event{}, serverprofile.ErrInactive
	}

	ev := event.Event{
		ID:          deps.GenerateID(),
		ServerID:    srv.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt.UTC(),
		EndsAt:      input.EndsAt.UTC(),
		Capacity:    input.Capacity,
		Status:      event.StatusUpcoming,
		CreatedAt:   deps.Now(),
	}
	if err := ev.Validate(); err != nil {
		return event.Event{}, err
	}
	if err := deps.EventStore.Save(ctx, ev); err != nil {
		return event.Event{}, err
	}

	slog.Info("event_event", "event", "created", "event_id", ev.ID, "server_id", srv.ID)
	return ev, nil
}

// UpdateEventStatusInput carries input for the orchestrator.
type UpdateEventStatusInput struct {
	Actor   Actor
	EventID string
	Status  string
}

// UpdateEventStatusDeps holds dependencies for UpdateEventStatus.
type UpdateEventStatusDeps struct {
	ServerStore ServerProfileLookup
	EventStore  EventStoreForOrchestrator
}

// ExecuteUpdateEventStatus starts, completes or cancels an event.
// PRE: caller is the organizing server or an admin
// POST: status follows upcoming -> ongoing -> completed, or -> cancelled
func ExecuteUpdateEventStatus(ctx context.Context, input UpdateEventStatusInput, deps UpdateEventStatusDeps) (event.Event, error) {
	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return event.Event{}, err
	}

	if input.Actor.Role != account.RoleAdmin {
		srv, err := serverForActor(ctx, deps.ServerStore, input.Actor.AccountID)
		if err != nil {
			return event.Event{}, err
		}
		if srv.ID != ev.ServerID {
			return event.Event{}, ErrNotOrganizer
		}
	}

	from := ev.Status
	if err := ev.TransitionTo(input.Status); err != nil {
		return event.Event{}, err
	}
	if err := deps.EventStore.Save(ctx, ev); err != nil {
		return event.Event{}, err
	}

	slog.Info("event_event", "event", "status_changed", "event_id", ev.ID, "from", from, "to", ev.Status)
	return ev, nil
}

// JoinEventInput carries input for the orchestrator.
type JoinEventInput struct {
	ParticipantID string
	EventID       string
}

// JoinEventDeps holds dependencies for JoinEvent.
type JoinEventDeps struct {
	EventStore EventStoreForOrchestrator
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteJoinEvent registers a participant for an upcoming event.
// PRE: event is upcoming and below capacity; participant not yet registered
// POST: registration persisted; capacity is re-checked inside the store transaction
func ExecuteJoinEvent(ctx context.Context, input JoinEventInput, deps JoinEventDeps) (event.Registration, error) {
	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return event.Registration{}, err
	}
	count, err := deps.EventStore.CountRegistrations(ctx, ev.ID)
	if err != nil {
		return event.Registration{}, err
	}
	if err := ev.CanJoin(count); err != nil {
		return event.Registration{}, err
	}

	reg := event.Registration{
		ID:            deps.GenerateID(),
		EventID:       ev.ID,
		ParticipantID: input.ParticipantID,
		JoinedAt:      deps.Now(),
	}
	if err := deps.EventStore.Register(ctx, reg, ev.Capacity); err != nil {
		return event.Registration{}, err
	}

	slog.Info("event_event", "event", "joined", "event_id", ev.ID, "participant_id", input.ParticipantID)
	return reg, nil
}

// LeaveEventInput carries input for the orchestrator.
type LeaveEventInput struct {
	ParticipantID string
	EventID       string
}

// LeaveEventDeps holds dependencies for LeaveEvent.
type LeaveEventDeps struct {
	EventStore EventStoreForOrchestrator
}

// ExecuteLeaveEvent withdraws a registration before the event starts.
// PRE: event is upcoming; participant is registered
// POST: registration removed
func ExecuteLeaveEvent(ctx context.Context, input LeaveEventInput, deps LeaveEventDeps) error {
	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return err
	}
	if err := ev.CanLeave(); err != nil {
		return err
	}
	if err := deps.EventStore.Unregister(ctx, ev.ID, input.ParticipantID); err != nil {
		return err
	}

	slog.Info("event_event", "event", "left", "event_id", ev.ID, "participant_id", input.ParticipantID)
	return nil
}
