package operations

import (
	"context"

	domain "ecocrew/internal/domain/operations"
)

// Store persists a server's operational records. Every read, write and delete
// is scoped by server ID so one server can never touch another's records.
type Store interface {
	SaveTask(ctx context.Context, t domain.Task) error
	GetTask(ctx context.Context, serverID, id string) (domain.Task, error)
	ListTasks(ctx context.Context, serverID string) ([]domain.Task, error)
	DeleteTask(ctx context.Context, serverID, id string) error

	SaveEquipment(ctx context.Context, e domain.Equipment) error
	ListEquipment(ctx context.Context, serverID string) ([]domain.Equipment, error)
	DeleteEquipment(ctx context.Context, serverID, id string) error

	SaveCompliance(ctx context.Context, c domain.ComplianceRecord) error
	ListCompliance(ctx context.Context, serverID string) ([]domain.ComplianceRecord, error)
	DeleteCompliance(ctx context.Context, serverID, id string) error

	SaveFinance(ctx context.Context, f domain.FinanceEntry) error
	ListFinances(ctx context.Context, serverID string) ([]domain.FinanceEntry, error)
	DeleteFinance(ctx context.Context, serverID, id string) error
}
