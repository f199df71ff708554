package impact

import (
	"context"
	"time"

	domain "ecocrew/internal/domain/impact"
)

// Store persists impact logs.
type Store interface {
	Save(ctx context.Context, value domain.Log) error
	ListByParticipant(ctx context.Context, participantID string) ([]domain.Log, error)
	// ListSince returns every log at or after since; the zero time means all.
	ListSince(ctx context.Context, since time.Time) ([]domain.Log, error)
}
