package projections

import (
	"context"
	"time"

	auditStore "ecocrew/internal/adapters/storage/audit"
	eventStore "ecocrew/internal/adapters/storage/event"
	serverStore "ecocrew/internal/adapters/storage/serverprofile"
	sharingStore "ecocrew/internal/adapters/storage/sharing"
	domainAudit "ecocrew/internal/domain/audit"
	"ecocrew/internal/domain/certification"
	"ecocrew/internal/domain/event"
	"ecocrew/internal/domain/impact"
	"ecocrew/internal/domain/operations"
	domainOutbox "ecocrew/internal/domain/outbox"
	"ecocrew/internal/domain/serverprofile"
	"ecocrew/internal/domain/sharing"
)

// EventStore interface for event queries.
type EventStore interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context, filter eventStore.ListFilter) ([]event.Event, error)
	RegistrationCounts(ctx context.Context) (map[string]int, error)
	RegisteredEventIDs(ctx context.Context, participantID string) ([]string, error)
}

// ImpactStore interface for impact log queries.
type ImpactStore interface {
	ListByParticipant(ctx context.Context, participantID string) ([]impact.Log, error)
	ListSince(ctx context.Context, since time.Time) ([]impact.Log, error)
}

// DisplayNameStore resolves participant display names.
type DisplayNameStore interface {
	DisplayNames(ctx context.Context, accountIDs []string) (map[string]string, error)
}

// CertificateStore interface for certificate queries.
type CertificateStore interface {
	GetByID(ctx context.Context, id string) (certification.Certificate, error)
	ListByParticipant(ctx context.Context, participantID string) ([]certification.Certificate, error)
	GetMany(ctx context.Context, ids []string) (map[string]certification.Certificate, error)
}

// SharingStore interface for sharing request queries.
type SharingStore interface {
	List(ctx context.Context, filter sharingStore.ListFilter) ([]sharing.Request, error)
}

// ServerStore interface for server profile queries.
type ServerStore interface {
	GetByID(ctx context.Context, id string) (serverprofile.Profile, error)
	GetByAccountID(ctx context.Context, accountID string) (serverprofile.Profile, error)
	List(ctx context.Context, filter serverStore.ListFilter) ([]serverprofile.Profile, error)
}

// OperationsStore interface for server-scoped record queries.
type OperationsStore interface {
	ListTasks(ctx context.Context, serverID string) ([]operations.Task, error)
	ListEquipment(ctx context.Context, serverID string) ([]operations.Equipment, error)
	ListCompliance(ctx context.Context, serverID string) ([]operations.ComplianceRecord, error)
	ListFinances(ctx context.Context, serverID string) ([]operations.FinanceEntry, error)
}

// AuditStore interface for audit queries.
type AuditStore interface {
	List(ctx context.Context, filter auditStore.Filter, limit int) ([]domainAudit.Event, error)
}

// OutboxStore interface for outbox queries.
type OutboxStore interface {
	ListByStatus(ctx context.Context, status string, limit int) ([]domainOutbox.Entry, error)
}
