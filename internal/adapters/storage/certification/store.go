package certification

import (
	"context"

	domain "ecocrew/internal/domain/certification"
)

// Store persists participant certificates.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Certificate, error)
	Save(ctx context.Context, value domain.Certificate) error
	ListByParticipant(ctx context.Context, participantID string) ([]domain.Certificate, error)
	// GetMany returns the certificates with the given IDs keyed by ID.
	GetMany(ctx context.Context, ids []string) (map[string]domain.Certificate, error)
}
