package profile

import (
	"context"

	domain "ecocrew/internal/domain/profile"
)

// Store persists participant profiles.
type Store interface {
	GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error)
	Save(ctx context.Context, value domain.Profile) error
	// DisplayNames maps account IDs to display names for the given accounts.
	DisplayNames(ctx context.Context, accountIDs []string) (map[string]string, error)
}
