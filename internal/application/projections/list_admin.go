package projections

import (
	"context"
	"fmt"
	"time"

	auditStore "ecocrew/internal/adapters/storage/audit"
	serverStore "ecocrew/internal/adapters/storage/serverprofile"
	domainAudit "ecocrew/internal/domain/audit"
)

// ListServersQuery carries input for the server list projection.
type ListServersQuery struct {
	IncludeInactive bool // admins see every server
}

// ListServersDeps holds dependencies for the server list projection.
type ListServersDeps struct {
	ServerStore ServerStore
}

// QueryListServers lists server profiles; only active ones unless IncludeInactive.
func QueryListServers(ctx context.Context, query ListServersQuery, deps ListServersDeps) ([]ServerView, error) {
	servers, err := deps.ServerStore.List(ctx, serverStore.ListFilter{ActiveOnly: !query.IncludeInactive})
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	views := make([]ServerView, 0, len(servers))
	for _, s := range servers {
		views = append(views, NewServerView(s))
	}
	return views, nil
}

// DefaultAdminListLimit bounds the audit and outbox listings.
const DefaultAdminListLimit = 100

// ListAuditQuery carries input for the audit list projection.
type ListAuditQuery struct {
	Category   string
	Action     string
	ActorID    string
	ResourceID string
	From       time.Time
	To         time.Time
	Limit      int
}

// ListAuditDeps holds dependencies for the audit list projection.
type ListAuditDeps struct {
	AuditStore AuditStore
}

// QueryListAudit lists audit events newest first.
func QueryListAudit(ctx context.Context, query ListAuditQuery, deps ListAuditDeps) ([]domainAudit.Event, error) {
	limit := query.Limit
	if limit <= 0 || limit > DefaultAdminListLimit {
		limit = DefaultAdminListLimit
	}
	filter := auditStore.Filter{
		Category:   domainAudit.Category(query.Category),
		Action:     domainAudit.Action(query.Action),
		ActorID:    query.ActorID,
		ResourceID: query.ResourceID,
	}
	if !query.From.IsZero() {
		filter.From = query.From.UTC().Format(time.RFC3339)
	}
	if !query.To.IsZero() {
		filter.To = query.To.UTC().Format(time.RFC3339)
	}
	events, err := deps.AuditStore.List(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

// ListOutboxQuery carries input for the outbox list projection.
type ListOutboxQuery struct {
	Status string // empty lists every entry
	Limit  int
}

// ListOutboxDeps holds dependencies for the outbox list projection.
type ListOutboxDeps struct {
	OutboxStore OutboxStore
}

// QueryListOutbox lists outbox entries, most recently attempted first.
func QueryListOutbox(ctx context.Context, query ListOutboxQuery, deps ListOutboxDeps) ([]OutboxEntryView, error) {
	limit := query.Limit
	if limit <= 0 || limit > DefaultAdminListLimit {
		limit = DefaultAdminListLimit
	}
	entries, err := deps.OutboxStore.ListByStatus(ctx, query.Status, limit)
	if err != nil {
		return nil, fmt.Errorf("list outbox entries: %w", err)
	}
	views := make([]OutboxEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, NewOutboxEntryView(e))
	}
	return views, nil
}
