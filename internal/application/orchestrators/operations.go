package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ecocrew/internal/domain/operations"
)

// OperationsStore defines the server-scoped record persistence.
type OperationsStore interface {
	SaveTask(ctx context.Context, t operations.Task) error
	GetTask(ctx context.Context, serverID, id string) (operations.Task, error)
	DeleteTask(ctx context.Context, serverID, id string) error
	SaveEquipment(ctx context.Context, e operations.Equipment) error
	ListEquipment(ctx context.Context, serverID string) ([]operations.Equipment, error)
	DeleteEquipment(ctx context.Context, serverID, id string) error
	SaveCompliance(ctx context.Context, c operations.ComplianceRecord) error
	ListCompliance(ctx context.Context, serverID string) ([]operations.ComplianceRecord, error)
	DeleteCompliance(ctx context.Context, serverID, id string) error
	SaveFinance(ctx context.Context, f operations.FinanceEntry) error
	ListFinances(ctx context.Context, serverID string) ([]operations.FinanceEntry, error)
	DeleteFinance(ctx context.Context, serverID, id string) error
}

// Record kinds accepted by ExecuteDeleteOpsRecord.
const (
	OpsTask       = "task"
	OpsEquipment  = "equipment"
	OpsCompliance = "compliance"
	OpsFinance    = "finance"
)

// ErrUnknownOpsKind is returned for an unrecognised record kind.
var ErrUnknownOpsKind = errors.New("unknown operations record kind")

// OpsDeps holds dependencies for the operations orchestrators.
type OpsDeps struct {
	ServerStore ServerProfileLookup
	OpsStore    OperationsStore
	GenerateID  func() string
	Now         func() time.Time
}

// SaveTaskInput carries a task create or edit. An empty ID creates.
type SaveTaskInput struct {
	Actor       Actor
	ID          string
	EventID     string
	Title       string
	Description string
	Assignee    string
	DueOn       time.Time
}

// ExecuteSaveTask creates or edits a task owned by the caller's server.
// PRE: caller owns a server profile
// POST: new tasks start in todo; edits keep the current status
func ExecuteSaveTask(ctx context.Context, input SaveTaskInput, deps OpsDeps) (operations.Task, error) {
	srv, err := serverForActor(ctx, deps.ServerStore, input.Actor.AccountID)
	if err != nil {
		return operations.Task{}, err
	}
	now := deps.Now()

	var t operations.Task
	if input.ID == "" {
		t = operations.Task{ID: deps.GenerateID(), ServerID: srv.ID, Status: operations.TaskTodo, CreatedAt: now}
	} else if t, err = deps.OpsStore.GetTask(ctx, srv.ID, input.ID); err != nil {
		return operations.Task{}, err
	}
	t.EventID = input.EventID
	t.Title = strings.TrimSpace(input.Title)
	t.Description = strings.TrimSpace(input.Description)
	t.Assignee = strings.TrimSpace(input.Assignee)
	t.DueOn = input.DueOn
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return operations.Task{}, err
	}
	if err := deps.OpsStore.SaveTask(ctx, t); err != nil {
		return operations.Task{}, err
	}
	slog.Info("ops_event", "event", "task_saved", "server_id", srv.ID, "task_id", t.ID)
	return t, nil
}

// UpdateTaskStatusInput carries a task status move.
type UpdateTaskStatusInput struct {
	Actor  Actor
	TaskID string
	Status string
}

// ExecuteUpdateTaskStatus moves a task through todo -> in_progress -> done.
func ExecuteUpdateTaskStatus(ctx context.Context, input UpdateTaskStatusInput, deps OpsDeps) (operations.Task, error) {
	srv, err := serverForActor(ctx, deps.ServerStore, input.Actor.AccountID)
	if err != nil {
		return operations.Task{}, err
	}
	t, err := deps.OpsStore.GetTask(ctx, srv.ID, input.TaskID)
	if err != nil {
		return operations.Task{}, err
	}
	from := t.Status
	if err := t.TransitionTo(input.Status, deps.Now()); err != nil {
		return operations.Task{}, err
	}
	if err := deps.OpsStore.SaveTask(ctx, t); err != nil {
		return operations.Task{}, err
	}
	slog.Info("ops_event", "event", "task_status_changed", "task_id", t.ID, "from", from, "to", t.Status)
	return t, nil
}

// SaveEquipmentInput carries an equipment create or edit. An empty ID creates.
type SaveEquipmentInput struct {
	Actor     Actor
	ID        string
	Name      string
	Category  string
	Quantity  int
	Condition string
}

// ExecuteSaveEquipment creates or edits an inventory line.
func ExecuteSaveEquipment(ctx context.Context, input SaveEquipmentInput, deps OpsDeps) (operations.Equipment, error) {
	srv, err := serverForActor(ctx, deps.ServerStore, input.Actor.AccountID)
	if err != nil {
		return operations.Equipment{}, err
	}
	now := deps.Now()
	e := operations.Equipment{
		ID:        input.ID,
		ServerID:  srv.ID,
		Name:      strings.TrimSpace(input.Name),
		Category:  strings.TrimSpace(input.Category),
		Quantity:  input.Quantity,
		Condition: input.Condition,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.Condition == "" {
		e.Condition = operations.ConditionGood
	}
	if e.ID == "" {
		e.ID = deps.GenerateID()
	} else {
		existing, err := deps.OpsStore.ListEquipment(ctx, srv.ID)
		if err != nil {
			return operations.Equipment{}, err
		}
		if !containsID(existing, e.ID, func(x operations.Equipment) string { return x.ID }) {
			return operations.Equipment{}, notFound("equipment", e.ID)
		}
	}

	if err := e.Validate(); err != nil {
		return operations.Equipment{}, err
	}
	if err := deps.OpsStore.SaveEquipment(ctx, e); err != nil {
		return operations.Equipment{}, err
	}
	slog.Info("ops_event", "event", "equipment_saved", "server_id", srv.ID, "equipment_id", e.ID)
	return e, nil
}

// SaveComplianceInput carries a compliance record create or edit. An empty ID creates.
type SaveComplianceInput struct {
	Actor      Actor
	ID         string
	Title      string
	Kind       string
	Reference  string
	ValidFrom  time.Time
	ValidUntil time.Time
}

// ExecuteSaveCompliance creates or edits a compliance record.
func ExecuteSaveCompliance(ctx context.Context, input SaveComplianceInput, deps OpsDeps) (operations.ComplianceRecord, error) {
	srv, err := serverForActor(ctx, deps.ServerStore, input.Actor.AccountID)
	if err != nil {
		return operations.ComplianceRecord{}, err
	}
	now := deps.Now()
	c := operations.ComplianceRecord{
		ID:         input.ID,
		ServerID:   srv.ID,
		Title:      strings.TrimSpace(input.Title),
		Kind:       input.Kind,
		Reference:  strings.TrimSpace(input.Reference),
		ValidFrom:  input.ValidFrom,
		ValidUntil: input.ValidUntil,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c.ID == "" {
		c.ID = deps.GenerateID()
	} else {
		existing, err := deps.OpsStore.ListCompliance(ctx, srv.ID)
		if err != nil {
			return operations.ComplianceRecord{}, err
		}
		if !containsID(existing, c.ID, func(x operations.ComplianceRecord) string { return x.ID }) {
			return operations.ComplianceRecord{}, notFound("compliance record", c.ID)
		}
	}

	if err := c.Validate(); err != nil {
		return operations.ComplianceRecord{}, err
	}
	if err := deps.OpsStore.SaveCompliance(ctx, c); err != nil {
		return operations.ComplianceRecord{}, err
	}
	slog.Info("ops_event", "event", "compliance_saved", "server_id", srv.ID, "record_id", c.ID, "state", c.State(now))
	return c, nil
}

// SaveFinanceInput carries a finance entry create or edit. An empty ID creates.
type SaveFinanceInput struct {
	Actor       Actor
	ID          string
	EventID     string
	Kind        string
	Category    string
	AmountCents int64
	Description string
	OccurredOn  time.Time
}

// ExecuteSaveFinance creates or edits a finance entry.
func ExecuteSaveFinance(ctx context.Context, input SaveFinanceInput, deps OpsDeps) (operations.FinanceEntry, error) {
	srv, err := serverForActor(ctx, deps.ServerStore, input.Actor.AccountID)
	if err != nil {
		return operations.FinanceEntry{}, err
	}
	f := operations.FinanceEntry{
		ID:          input.ID,
		ServerID:    srv.ID,
		EventID:     input.EventID,
		Kind:        input.Kind,
		Category:    strings.TrimSpace(input.Category),
		AmountCents: input.AmountCents,
		Description: strings.TrimSpace(input.Description),
		OccurredOn:  input.OccurredOn,
		CreatedAt:   deps.Now(),
	}
	if f.ID == "" {
		f.ID = deps.GenerateID()
	} else {
		existing, err := deps.OpsStore.ListFinances(ctx, srv.ID)
		if err != nil {
			return operations.FinanceEntry{}, err
		}
		if !containsID(existing, f.ID, func(x operations.FinanceEntry) string { return x.ID }) {
			return operations.FinanceEntry{}, notFound("finance entry", f.ID)
		}
	}

	if err := f.Validate(); err != nil {
		return operations.FinanceEntry{}, err
	}
	if err := deps.OpsStore.SaveFinance(ctx, f); err != nil {
		return operations.FinanceEntry{}, err
	}
	slog.Info("ops_event", "event", "finance_saved", "server_id", srv.ID, "entry_id", f.ID, "kind", f.Kind)
	return f, nil
}

// DeleteOpsRecordInput identifies a record to delete.
type DeleteOpsRecordInput struct {
	Actor Actor
	Kind  string // OpsTask, OpsEquipment, OpsCompliance or OpsFinance
	ID    string
}

// ExecuteDeleteOpsRecord deletes one of the caller's server records.
// POST: records of other servers are reported as not found
func ExecuteDeleteOpsRecord(ctx context.Context, input DeleteOpsRecordInput, deps OpsDeps) error {
	srv, err := serverForActor(ctx, deps.ServerStore, input.Actor.AccountID)
	if err != nil {
		return err
	}

	switch input.Kind {
	case OpsTask:
		err = deps.OpsStore.DeleteTask(ctx, srv.ID, input.ID)
	case OpsEquipment:
		err = deps.OpsStore.DeleteEquipment(ctx, srv.ID, input.ID)
	case OpsCompliance:
		err = deps.OpsStore.DeleteCompliance(ctx, srv.ID, input.ID)
	case OpsFinance:
		err = deps.OpsStore.DeleteFinance(ctx, srv.ID, input.ID)
	default:
		return ErrUnknownOpsKind
	}
	if err != nil {
		return err
	}
	slog.Info("ops_event", "event", "deleted", "kind", input.Kind, "server_id", srv.ID, "id", input.ID)
	return nil
}

func containsID[T any](items []T, id string, key func(T) string) bool {
	for _, it := range items {
		if key(it) == id {
			return true
		}
	}
	return false
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s not found: %w", what, id, sql.ErrNoRows)
}
