package serverprofile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecocrew/internal/adapters/storage"
	domain "ecocrew/internal/domain/serverprofile"
)

const serverColumns = "id, account_id, organization_name, contact_email, description, active, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new server profile store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a server profile by its ID.
// POST: Returns the profile or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	return s.getOne(ctx, "id", id)
}

// GetByAccountID retrieves the server profile owned by a reviewer account.
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error) {
	return s.getOne(ctx, "account_id", accountID)
}

func (s *SQLiteStore) getOne(ctx context.Context, column, value string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+serverColumns+" FROM server_profiles WHERE "+column+" = ?", value)
	p, err := scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("server profile not found: %w", err)
	}
	return p, err
}

// Save persists a server profile (insert or update).
// PRE: p has been validated
func (s *SQLiteStore) Save(ctx context.Context, p domain.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO server_profiles (`+serverColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   organization_name=excluded.organization_name, contact_email=excluded.contact_email,
		   description=excluded.description, active=excluded.active`,
		p.ID, p.AccountID, p.OrganizationName, p.ContactEmail, p.Description, p.Active, storage.FormatTime(p.CreatedAt))
	return err
}

// List returns server profiles ordered by organization name.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Profile, error) {
	query := "SELECT " + serverColumns + " FROM server_profiles"
	if filter.ActiveOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY organization_name COLLATE NOCASE"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var p domain.Profile
	var createdAt string
	if err := scan(&p.ID, &p.AccountID, &p.OrganizationName, &p.ContactEmail, &p.Description, &p.Active, &createdAt); err != nil {
		return domain.Profile{}, err
	}
	p.CreatedAt, _ = storage.ParseTime(createdAt)
	return p, nil
}
