package serverprofile

import (
	"context"

	domain "ecocrew/internal/domain/serverprofile"
)

// Store persists server profiles.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error)
	Save(ctx context.Context, value domain.Profile) error
	List(ctx context.Context, filter ListFilter) ([]domain.Profile, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	ActiveOnly bool
}
