package sharing

import (
	"context"
	"time"

	domain "ecocrew/internal/domain/sharing"
)

// Store persists certificate sharing requests.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Request, error)

	// Create inserts a new request.
	// POST: returns domain.ErrDuplicateOpen if an open request exists for the
	// same certificate and server
	Create(ctx context.Context, r domain.Request) error

	// Update writes r if the stored version still equals r.Version.
	// POST: stored version is r.Version+1, or domain.ErrConflict is returned
	Update(ctx context.Context, r domain.Request) error

	// ApplyReview is Update plus, when activate is set, activation of the
	// request's certificate, all in one transaction.
	ApplyReview(ctx context.Context, r domain.Request, activate bool, now time.Time) error

	// ApplyResubmit is Update plus, when fileRef is set, replacement of an
	// inactive certificate's file, all in one transaction.
	ApplyResubmit(ctx context.Context, r domain.Request, fileRef string, now time.Time) error

	List(ctx context.Context, filter ListFilter) ([]domain.Request, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	ServerID      string
	ParticipantID string
	CertificateID string
	Statuses      []string
	CommunityOnly bool // approved and show_in_community
	Limit         int
	Offset        int
}
