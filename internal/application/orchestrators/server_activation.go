package orchestrators

import (
	"context"
	"log/slog"
	"time"

	domainAudit "ecocrew/internal/domain/audit"
	"ecocrew/internal/domain/serverprofile"
)

// ServerStoreForActivation defines the store interface needed by SetServerActive.
type ServerStoreForActivation interface {
	GetByID(ctx context.Context, id string) (serverprofile.Profile, error)
	Save(ctx context.Context, p serverprofile.Profile) error
}

// SetServerActiveInput carries input for the orchestrator.
type SetServerActiveInput struct {
	Actor    Actor // admin
	ServerID string
	Active   bool
}

// SetServerActiveDeps holds dependencies for SetServerActive.
type SetServerActiveDeps struct {
	ServerStore ServerStoreForActivation
	AuditStore  AuditRecorder
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteSetServerActive activates or deactivates a server profile.
// PRE: caller is an admin (enforced by routing)
// POST: profile saved with the new flag; an audit event is written
func ExecuteSetServerActive(ctx context.Context, input SetServerActiveInput, deps SetServerActiveDeps) (serverprofile.Profile, error) {
	srv, err := deps.ServerStore.GetByID(ctx, input.ServerID)
	if err != nil {
		return serverprofile.Profile{}, err
	}

	if input.Active {
		err = srv.Activate()
	} else {
		err = srv.Deactivate()
	}
	if err != nil {
		return serverprofile.Profile{}, err
	}
	if err := deps.ServerStore.Save(ctx, srv); err != nil {
		return serverprofile.Profile{}, err
	}

	desc := "server deactivated"
	if srv.Active {
		desc = "server activated"
	}
	slog.Info("server_event", "event", desc, "server_id", srv.ID, "by", input.Actor.AccountID)
	recordAudit(ctx, deps.AuditStore,
		newAuditEvent(deps.GenerateID(), deps.Now(), input.Actor, domainAudit.CategoryServer, domainAudit.ActionUpdate).
			WithResource("server_profile", srv.ID).
			WithDescription(desc))
	return srv, nil
}
