package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ecocrew/internal/adapters/storage"
	domain "ecocrew/internal/domain/profile"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new profile store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByAccountID retrieves the profile belonging to an account.
// PRE: accountID is non-empty
// POST: Returns the profile or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error) {
	var p domain.Profile
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, display_name, bio, location, created_at FROM profiles WHERE account_id = ?`, accountID).
		Scan(&p.ID, &p.AccountID, &p.DisplayName, &p.Bio, &p.Location, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("profile not found: %w", err)
	}
	if err != nil {
		return domain.Profile{}, err
	}
	p.CreatedAt, _ = storage.ParseTime(createdAt)
	return p, nil
}

// Save persists a profile (insert or update).
// PRE: p has been validated
func (s *SQLiteStore) Save(ctx context.Context, p domain.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, account_id, display_name, bio, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   display_name=excluded.display_name, bio=excluded.bio, location=excluded.location`,
		p.ID, p.AccountID, strings.TrimSpace(p.DisplayName), p.Bio, p.Location, storage.FormatTime(p.CreatedAt))
	return err
}

// DisplayNames maps account IDs to display names. Accounts without a profile
// are absent from the result.
func (s *SQLiteStore) DisplayNames(ctx context.Context, accountIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(accountIDs))
	if len(accountIDs) == 0 {
		return names, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(accountIDs)), ",")
	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT account_id, display_name FROM profiles WHERE account_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
