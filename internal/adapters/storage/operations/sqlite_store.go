package operations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecocrew/internal/adapters/storage"
	domain "ecocrew/internal/domain/operations"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new operations store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// deleteScoped removes one row owned by serverID.
// POST: returns an error wrapping sql.ErrNoRows when no row matched
func (s *SQLiteStore) deleteScoped(ctx context.Context, table, serverID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND server_id = ?", id, serverID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s record not found: %w", table, sql.ErrNoRows)
	}
	return nil
}

// --- Tasks ---

const taskColumns = "id, server_id, event_id, title, description, assignee, due_on, status, created_at, updated_at"

// SaveTask persists a task (insert or update).
// PRE: t has been validated
func (s *SQLiteStore) SaveTask(ctx context.Context, t domain.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ops_tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   event_id=excluded.event_id, title=excluded.title, description=excluded.description,
		   assignee=excluded.assignee, due_on=excluded.due_on, status=excluded.status,
		   updated_at=excluded.updated_at
		 WHERE ops_tasks.server_id = excluded.server_id`,
		t.ID, t.ServerID, t.EventID, t.Title, t.Description, t.Assignee,
		storage.NullDate(t.DueOn), t.Status, storage.FormatTime(t.CreatedAt), storage.FormatTime(t.UpdatedAt))
	return err
}

// GetTask retrieves a task owned by serverID.
func (s *SQLiteStore) GetTask(ctx context.Context, serverID, id string) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM ops_tasks WHERE id = ? AND server_id = ?", id, serverID)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("task not found: %w", err)
	}
	return t, err
}

// ListTasks returns a server's tasks: undated last, then by due day.
func (s *SQLiteStore) ListTasks(ctx context.Context, serverID string) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM ops_tasks WHERE server_id = ? ORDER BY due_on IS NULL, due_on, created_at", serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTask removes a task owned by serverID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, serverID, id string) error {
	return s.deleteScoped(ctx, "ops_tasks", serverID, id)
}

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var dueOn sql.NullString
	var createdAt, updatedAt string
	if err := scan(&t.ID, &t.ServerID, &t.EventID, &t.Title, &t.Description, &t.Assignee,
		&dueOn, &t.Status, &createdAt, &updatedAt); err != nil {
		return domain.Task{}, err
	}
	t.DueOn = storage.ParseNullTime(dueOn)
	t.CreatedAt, _ = storage.ParseTime(createdAt)
	t.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return t, nil
}

// --- Equipment ---

const equipmentColumns = "id, server_id, name, category, quantity, condition, created_at, updated_at"

// SaveEquipment persists an inventory line (insert or update).
func (s *SQLiteStore) SaveEquipment(ctx context.Context, e domain.Equipment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ops_equipment (`+equipmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, category=excluded.category, quantity=excluded.quantity,
		   condition=excluded.condition, updated_at=excluded.updated_at
		 WHERE ops_equipment.server_id = excluded.server_id`,
		e.ID, e.ServerID, e.Name, e.Category, e.Quantity, e.Condition,
		storage.FormatTime(e.CreatedAt), storage.FormatTime(e.UpdatedAt))
	return err
}

// ListEquipment returns a server's inventory ordered by name.
func (s *SQLiteStore) ListEquipment(ctx context.Context, serverID string) ([]domain.Equipment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+equipmentColumns+" FROM ops_equipment WHERE server_id = ? ORDER BY name COLLATE NOCASE", serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Equipment
	for rows.Next() {
		var e domain.Equipment
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.ServerID, &e.Name, &e.Category, &e.Quantity, &e.Condition, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = storage.ParseTime(createdAt)
		e.UpdatedAt, _ = storage.ParseTime(updatedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEquipment removes an inventory line owned by serverID.
func (s *SQLiteStore) DeleteEquipment(ctx context.Context, serverID, id string) error {
	return s.deleteScoped(ctx, "ops_equipment", serverID, id)
}

// --- Compliance ---

const complianceColumns = "id, server_id, title, kind, reference, valid_from, valid_until, created_at, updated_at"

// SaveCompliance persists a compliance record (insert or update).
func (s *SQLiteStore) SaveCompliance(ctx context.Context, c domain.ComplianceRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ops_compliance (`+complianceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, kind=excluded.kind, reference=excluded.reference,
		   valid_from=excluded.valid_from, valid_until=excluded.valid_until, updated_at=excluded.updated_at
		 WHERE ops_compliance.server_id = excluded.server_id`,
		c.ID, c.ServerID, c.Title, c.Kind, c.Reference,
		storage.NullDate(c.ValidFrom), storage.FormatDate(c.ValidUntil),
		storage.FormatTime(c.CreatedAt), storage.FormatTime(c.UpdatedAt))
	return err
}

// ListCompliance returns a server's records, soonest expiry first.
func (s *SQLiteStore) ListCompliance(ctx context.Context, serverID string) ([]domain.ComplianceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+complianceColumns+" FROM ops_compliance WHERE server_id = ? ORDER BY valid_until", serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ComplianceRecord
	for rows.Next() {
		var c domain.ComplianceRecord
		var validFrom sql.NullString
		var validUntil, createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.ServerID, &c.Title, &c.Kind, &c.Reference,
			&validFrom, &validUntil, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.ValidFrom = storage.ParseNullTime(validFrom)
		c.ValidUntil, _ = storage.ParseTime(validUntil)
		c.CreatedAt, _ = storage.ParseTime(createdAt)
		c.UpdatedAt, _ = storage.ParseTime(updatedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCompliance removes a compliance record owned by serverID.
func (s *SQLiteStore) DeleteCompliance(ctx context.Context, serverID, id string) error {
	return s.deleteScoped(ctx, "ops_compliance", serverID, id)
}

// --- Finances ---

const financeColumns = "id, server_id, event_id, kind, category, amount_cents, description, occurred_on, created_at"

// SaveFinance persists a ledger entry (insert or update).
func (s *SQLiteStore) SaveFinance(ctx context.Context, f domain.FinanceEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ops_finances (`+financeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   event_id=excluded.event_id, kind=excluded.kind, category=excluded.category,
		   amount_cents=excluded.amount_cents, description=excluded.description, occurred_on=excluded.occurred_on
		 WHERE ops_finances.server_id = excluded.server_id`,
		f.ID, f.ServerID, f.EventID, f.Kind, f.Category, f.AmountCents, f.Description,
		storage.FormatDate(f.OccurredOn), storage.FormatTime(f.CreatedAt))
	return err
}

// ListFinances returns a server's ledger, newest first.
func (s *SQLiteStore) ListFinances(ctx context.Context, serverID string) ([]domain.FinanceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+financeColumns+" FROM ops_finances WHERE server_id = ? ORDER BY occurred_on DESC, created_at DESC", serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.FinanceEntry
	for rows.Next() {
		var f domain.FinanceEntry
		var occurredOn, createdAt string
		if err := rows.Scan(&f.ID, &f.ServerID, &f.EventID, &f.Kind, &f.Category, &f.AmountCents,
			&f.Description, &occurredOn, &createdAt); err != nil {
			return nil, err
		}
		f.OccurredOn, _ = storage.ParseTime(occurredOn)
		f.CreatedAt, _ = storage.ParseTime(createdAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFinance removes a ledger entry owned by serverID.
func (s *SQLiteStore) DeleteFinance(ctx context.Context, serverID, id string) error {
	return s.deleteScoped(ctx, "ops_finances", serverID, id)
}
