package event

import (
	"context"
	"time"

	domain "ecocrew/internal/domain/event"
)

// Store persists events and their registrations.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)

	// Register inserts reg unless the participant is already registered or
	// the event already holds capacity registrations (0 = unlimited).
	Register(ctx context.Context, reg domain.Registration, capacity int) error
	Unregister(ctx context.Context, eventID, participantID string) error
	IsRegistered(ctx context.Context, eventID, participantID string) (bool, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)
	RegistrationCounts(ctx context.Context) (map[string]int, error)
	RegisteredEventIDs(ctx context.Context, participantID string) ([]string, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Status      string
	ServerID    string
	Search      string    // matched against title, description and location
	StartsAfter time.Time // zero = no lower bound
	Limit       int
	Offset      int
}
