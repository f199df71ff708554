package audit

import (
	"context"
	"strings"

	"ecocrew/internal/adapters/storage"
	domain "ecocrew/internal/domain/audit"
)

const eventColumns = "id, timestamp, category, action, severity, actor_id, actor_email, actor_role, resource_id, resource_type, description, ip_address, user_agent, metadata"

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, storage.FormatTime(e.Timestamp), string(e.Category), string(e.Action), string(e.Severity),
		e.ActorID, e.ActorEmail, e.ActorRole, e.ResourceID, e.ResourceType,
		e.Description, e.IPAddress, e.UserAgent, e.Metadata)
	return err
}

// List returns audit events with optional filtering.
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error) {
	var qb strings.Builder
	var args []any
	qb.WriteString("SELECT " + eventColumns + " FROM audit_log WHERE 1=1")

	add := func(clause string, value any) {
		qb.WriteString(clause)
		args = append(args, value)
	}
	if filter.Category != "" {
		add(" AND category = ?", string(filter.Category))
	}
	if filter.Action != "" {
		add(" AND action = ?", string(filter.Action))
	}
	if filter.ActorID != "" {
		add(" AND actor_id = ?", filter.ActorID)
	}
	if filter.ResourceID != "" {
		add(" AND resource_id = ?", filter.ResourceID)
	}
	if t, err := storage.ParseTime(filter.From); filter.From != "" && err == nil {
		add(" AND timestamp >= ?", storage.FormatTime(t))
	}
	if t, err := storage.ParseTime(filter.To); filter.To != "" && err == nil {
		add(" AND timestamp <= ?", storage.FormatTime(t))
	}
	add(" ORDER BY timestamp DESC LIMIT ?", limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var timestamp string
		if err := rows.Scan(&e.ID, &timestamp, &e.Category, &e.Action, &e.Severity, &e.ActorID, &e.ActorEmail,
			&e.ActorRole, &e.ResourceID, &e.ResourceType, &e.Description, &e.IPAddress, &e.UserAgent, &e.Metadata); err != nil {
			return nil, err
		}
		e.Timestamp, _ = storage.ParseTime(timestamp)
		events = append(events, e)
	}
	return events, rows.Err()
}
