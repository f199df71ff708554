package certification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ecocrew/internal/adapters/storage"
	domain "ecocrew/internal/domain/certification"
)

const certColumns = "id, participant_id, name, type, issuer, issued_on, expires_on, file_ref, active, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new certificate store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a certificate.
// POST: Returns the certificate or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Certificate, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+certColumns+" FROM participant_certifications WHERE id = ?", id)
	c, err := scanCertificate(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Certificate{}, fmt.Errorf("certificate not found: %w", err)
	}
	return c, err
}

// Save persists a certificate (insert or update).
// PRE: c has been validated
func (s *SQLiteStore) Save(ctx context.Context, c domain.Certificate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO participant_certifications (`+certColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, type=excluded.type, issuer=excluded.issuer,
		   issued_on=excluded.issued_on, expires_on=excluded.expires_on,
		   file_ref=excluded.file_ref, active=excluded.active, updated_at=excluded.updated_at`,
		c.ID, c.ParticipantID, c.Name, c.Type, c.Issuer,
		storage.FormatDate(c.IssuedOn), storage.NullDate(c.ExpiresOn), c.FileRef, c.Active,
		storage.FormatTime(c.CreatedAt), storage.FormatTime(c.UpdatedAt))
	return err
}

// ListByParticipant returns a participant's certificates, newest first.
func (s *SQLiteStore) ListByParticipant(ctx context.Context, participantID string) ([]domain.Certificate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+certColumns+" FROM participant_certifications WHERE participant_id = ? ORDER BY created_at DESC", participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// GetMany returns the certificates with the given IDs. Unknown IDs are absent.
func (s *SQLiteStore) GetMany(ctx context.Context, ids []string) (map[string]domain.Certificate, error) {
	out := make(map[string]domain.Certificate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+certColumns+" FROM participant_certifications WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCertificate(rows.Scan)
		if err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func scanCertificate(scan func(dest ...any) error) (domain.Certificate, error) {
	var c domain.Certificate
	var issuedOn, createdAt, updatedAt string
	var expiresOn sql.NullString
	err := scan(&c.ID, &c.ParticipantID, &c.Name, &c.Type, &c.Issuer,
		&issuedOn, &expiresOn, &c.FileRef, &c.Active, &createdAt, &updatedAt)
	if err != nil {
		return domain.Certificate{}, err
	}
	c.IssuedOn, _ = storage.ParseTime(issuedOn)
	c.ExpiresOn = storage.ParseNullTime(expiresOn)
	c.CreatedAt, _ = storage.ParseTime(createdAt)
	c.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return c, nil
}
