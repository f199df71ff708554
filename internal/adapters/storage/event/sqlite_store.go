package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ecocrew/internal/adapters/storage"
	domain "ecocrew/internal/domain/event"
)

const eventColumns = "id, server_id, title, description, location, starts_at, ends_at, capacity, status, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Event by its ID.
// POST: Returns the event or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	e, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("event not found: %w", err)
	}
	return e, err
}

// Save persists an Event (insert or update).
// PRE: e has been validated
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, description=excluded.description, location=excluded.location,
		   starts_at=excluded.starts_at, ends_at=excluded.ends_at, capacity=excluded.capacity,
		   status=excluded.status`,
		e.ID, e.ServerID, e.Title, e.Description, e.Location,
		storage.FormatTime(e.StartsAt), storage.NullTime(e.EndsAt), e.Capacity, e.Status,
		storage.FormatTime(e.CreatedAt))
	return err
}

// List returns events matching filter ordered by start time.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	var qb strings.Builder
	var args []any
	qb.WriteString("SELECT " + eventColumns + " FROM events WHERE 1=1")

	if filter.Status != "" {
		qb.WriteString(" AND status = ?")
		args = append(args, filter.Status)
	}
	if filter.ServerID != "" {
		qb.WriteString(" AND server_id = ?")
		args = append(args, filter.ServerID)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		qb.WriteString(" AND (title LIKE ? OR description LIKE ? OR location LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}
	if !filter.StartsAfter.IsZero() {
		qb.WriteString(" AND starts_at >= ?")
		args = append(args, storage.FormatTime(filter.StartsAfter))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	qb.WriteString(" ORDER BY starts_at ASC, id ASC LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// Register inserts a registration inside a transaction so the capacity check
// and the insert see the same count.
// POST: returns domain.ErrAlreadyRegistered or domain.ErrEventFull on refusal
func (s *SQLiteStore) Register(ctx context.Context, reg domain.Registration, capacity int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = ? AND participant_id = ?`,
		reg.EventID, reg.ParticipantID).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return domain.ErrAlreadyRegistered
	}

	if capacity > 0 {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM event_registrations WHERE event_id = ?`, reg.EventID).Scan(&count); err != nil {
			return err
		}
		if count >= capacity {
			return domain.ErrEventFull
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO event_registrations (id, event_id, participant_id, joined_at) VALUES (?, ?, ?, ?)`,
		reg.ID, reg.EventID, reg.ParticipantID, storage.FormatTime(reg.JoinedAt))
	if storage.IsUniqueViolation(err) {
		return domain.ErrAlreadyRegistered
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Unregister removes a registration.
// POST: returns domain.ErrNotRegistered when there was nothing to remove
func (s *SQLiteStore) Unregister(ctx context.Context, eventID, participantID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM event_registrations WHERE event_id = ? AND participant_id = ?`, eventID, participantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}

// IsRegistered reports whether the participant joined the event.
func (s *SQLiteStore) IsRegistered(ctx context.Context, eventID, participantID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = ? AND participant_id = ?`,
		eventID, participantID).Scan(&n)
	return n > 0, err
}

// CountRegistrations returns the number of participants registered for an event.
func (s *SQLiteStore) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id = ?`, eventID).Scan(&n)
	return n, err
}

// RegistrationCounts returns registration counts keyed by event ID. Events
// without registrations are absent.
func (s *SQLiteStore) RegistrationCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id, COUNT(*) FROM event_registrations GROUP BY event_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// RegisteredEventIDs lists the events a participant joined.
func (s *SQLiteStore) RegisteredEventIDs(ctx context.Context, participantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id FROM event_registrations WHERE participant_id = ? ORDER BY joined_at`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var startsAt, createdAt string
	var endsAt sql.NullString
	err := scan(&e.ID, &e.ServerID, &e.Title, &e.Description, &e.Location,
		&startsAt, &endsAt, &e.Capacity, &e.Status, &createdAt)
	if err != nil {
		return domain.Event{}, err
	}
	e.StartsAt, _ = storage.ParseTime(startsAt)
	e.EndsAt = storage.ParseNullTime(endsAt)
	e.CreatedAt, _ = storage.ParseTime(createdAt)
	return e, nil
}
