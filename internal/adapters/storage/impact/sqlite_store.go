package impact

import (
	"context"
	"time"

	"ecocrew/internal/adapters/storage"
	domain "ecocrew/internal/domain/impact"
)

const logColumns = "id, participant_id, event_id, trash_kg, recyclables_kg, volunteer_hours, trees_planted, notes, logged_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new impact log store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts an impact log. Logs are append-only.
// PRE: l has been validated
func (s *SQLiteStore) Save(ctx context.Context, l domain.Log) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO impact_logs (`+logColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ParticipantID, l.EventID, l.TrashKg, l.RecyclablesKg, l.VolunteerHours,
		l.TreesPlanted, l.Notes, storage.FormatTime(l.LoggedAt))
	return err
}

// ListByParticipant returns a participant's logs, newest first.
func (s *SQLiteStore) ListByParticipant(ctx context.Context, participantID string) ([]domain.Log, error) {
	return s.list(ctx, "SELECT "+logColumns+" FROM impact_logs WHERE participant_id = ? ORDER BY logged_at DESC", participantID)
}

// ListSince returns logs recorded at or after since, oldest first.
func (s *SQLiteStore) ListSince(ctx context.Context, since time.Time) ([]domain.Log, error) {
	if since.IsZero() {
		return s.list(ctx, "SELECT "+logColumns+" FROM impact_logs ORDER BY logged_at")
	}
	return s.list(ctx, "SELECT "+logColumns+" FROM impact_logs WHERE logged_at >= ? ORDER BY logged_at", storage.FormatTime(since))
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Log, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.Log
	for rows.Next() {
		var l domain.Log
		var loggedAt string
		if err := rows.Scan(&l.ID, &l.ParticipantID, &l.EventID, &l.TrashKg, &l.RecyclablesKg,
			&l.VolunteerHours, &l.TreesPlanted, &l.Notes, &loggedAt); err != nil {
			return nil, err
		}
		l.LoggedAt, _ = storage.ParseTime(loggedAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
