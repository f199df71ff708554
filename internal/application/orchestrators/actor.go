package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainAudit "ecocrew/internal/domain/audit"
	domainServer "ecocrew/internal/domain/serverprofile"
)

// Authorization errors shared by orchestrators. Handlers map them to 403.
var (
	ErrNoServerProfile = errors.New("account has no server profile")
	ErrNotOrganizer    = errors.New("only the organizing server can change this event")
	ErrNotReviewer     = errors.New("only the target server's reviewer can review this request")
)

// Actor identifies who performs an operation. It is copied from the session
// and the request so audit rows can carry it.
type Actor struct {
	AccountID string
	Email     string
	Role      string
	IPAddress string
	UserAgent string
}

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, e domainAudit.Event) error
}

// ServerProfileLookup resolves the server profile behind an account.
type ServerProfileLookup interface {
	GetByAccountID(ctx context.Context, accountID string) (domainServer.Profile, error)
}

func newAuditEvent(id string, now time.Time, actor Actor, category domainAudit.Category, action domainAudit.Action) domainAudit.Event {
	return domainAudit.NewEvent(id, now, actor.AccountID, actor.Email, actor.Role, category, action).
		WithRequest(actor.IPAddress, actor.UserAgent)
}

// recordAudit writes ev. Audit failures are logged and never fail the caller.
func recordAudit(ctx context.Context, rec AuditRecorder, ev domainAudit.Event) {
	if rec == nil {
		return
	}
	if err := rec.Save(ctx, ev); err != nil {
		slog.Error("audit_save_failed", "category", ev.Category, "action", ev.Action, "resource_id", ev.ResourceID, "error", err)
	}
}

// serverForActor returns the server profile owned by accountID.
// POST: a missing profile yields ErrNoServerProfile
func serverForActor(ctx context.Context, servers ServerProfileLookup, accountID string) (domainServer.Profile, error) {
	srv, err := servers.GetByAccountID(ctx, accountID)
	if isNotFound(err) {
		return domainServer.Profile{}, ErrNoServerProfile
	}
	if err != nil {
		return domainServer.Profile{}, fmt.Errorf("load server profile: %w", err)
	}
	return srv, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
