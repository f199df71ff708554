package sharing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecocrew/internal/adapters/storage"
	"ecocrew/internal/domain/certification"
	domain "ecocrew/internal/domain/sharing"
)

const requestColumns = "id, certificate_id, participant_id, server_id, status, is_public, show_in_community, " +
	"review_notes, rejection_reason, revision_request, reviewed_by, submitted_at, reviewed_at, updated_at, version"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new sharing request store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a sharing request.
// POST: Returns the request or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Request, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM participant_certificate_sharing WHERE id = ?", id)
	r, err := scanRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Request{}, fmt.Errorf("sharing request not found: %w", err)
	}
	return r, err
}

// Create inserts a request after checking for an open duplicate. The partial
// unique index catches a duplicate inserted between the check and the insert.
func (s *SQLiteStore) Create(ctx context.Context, r domain.Request) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var open int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participant_certificate_sharing
		 WHERE certificate_id = ? AND server_id = ? AND status IN (?, ?, ?)`,
		r.CertificateID, r.ServerID, domain.StatusPending, domain.StatusUnderReview, domain.StatusNeedsRevision).Scan(&open)
	if err != nil {
		return err
	}
	if open > 0 {
		return domain.ErrDuplicateOpen
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO participant_certificate_sharing (`+requestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CertificateID, r.ParticipantID, r.ServerID, r.Status, r.IsPublic, r.ShowInCommunity,
		r.ReviewNotes, r.RejectionReason, r.RevisionRequest, r.ReviewedBy,
		storage.FormatTime(r.SubmittedAt), storage.NullTime(r.ReviewedAt), storage.FormatTime(r.UpdatedAt), r.Version)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateOpen
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Update writes r guarded by its version.
func (s *SQLiteStore) Update(ctx context.Context, r domain.Request) error {
	return s.ApplyReview(ctx, r, false, r.UpdatedAt)
}

// ApplyReview writes r guarded by its version and optionally activates the
// certificate in the same transaction.
// POST: on domain.ErrConflict nothing is written
func (s *SQLiteStore) ApplyReview(ctx context.Context, r domain.Request, activate bool, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateRequest(ctx, tx, r); err != nil {
		return err
	}
	if activate {
		if _, err := tx.ExecContext(ctx,
			`UPDATE participant_certifications SET active = 1, updated_at = ? WHERE id = ?`,
			storage.FormatTime(now), r.CertificateID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ApplyResubmit writes r guarded by its version and, when fileRef is set,
// replaces the certificate file in the same transaction.
// POST: on any error nothing is written; an active certificate keeps its file
// and certification.ErrFileLocked is returned
func (s *SQLiteStore) ApplyResubmit(ctx context.Context, r domain.Request, fileRef string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateRequest(ctx, tx, r); err != nil {
		return err
	}
	if fileRef != "" {
		res, err := tx.ExecContext(ctx,
			`UPDATE participant_certifications SET file_ref = ?, updated_at = ? WHERE id = ? AND active = 0`,
			fileRef, storage.FormatTime(now), r.CertificateID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return certification.ErrFileLocked
		}
	}
	return tx.Commit()
}

func updateRequest(ctx context.Context, tx *sql.Tx, r domain.Request) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE participant_certificate_sharing SET
		   status = ?, is_public = ?, show_in_community = ?, review_notes = ?,
		   rejection_reason = ?, revision_request = ?, reviewed_by = ?,
		   submitted_at = ?, reviewed_at = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		r.Status, r.IsPublic, r.ShowInCommunity, r.ReviewNotes,
		r.RejectionReason, r.RevisionRequest, r.ReviewedBy,
		storage.FormatTime(r.SubmittedAt), storage.NullTime(r.ReviewedAt), storage.FormatTime(r.UpdatedAt),
		r.ID, r.Version)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateOpen
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participant_certificate_sharing WHERE id = ?`, r.ID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("sharing request not found: %w", sql.ErrNoRows)
	}
	return domain.ErrConflict
}

// List returns requests matching filter, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Request, error) {
	var qb strings.Builder
	var args []any
	qb.WriteString("SELECT " + requestColumns + " FROM participant_certificate_sharing WHERE 1=1")

	if filter.ServerID != "" {
		qb.WriteString(" AND server_id = ?")
		args = append(args, filter.ServerID)
	}
	if filter.ParticipantID != "" {
		qb.WriteString(" AND participant_id = ?")
		args = append(args, filter.ParticipantID)
	}
	if filter.CertificateID != "" {
		qb.WriteString(" AND certificate_id = ?")
		args = append(args, filter.CertificateID)
	}
	if len(filter.Statuses) > 0 {
		qb.WriteString(" AND status IN (" + strings.TrimSuffix(strings.Repeat("?,", len(filter.Statuses)), ",") + ")")
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	if filter.CommunityOnly {
		qb.WriteString(" AND status = ? AND show_in_community = 1")
		args = append(args, domain.StatusApproved)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	qb.WriteString(" ORDER BY updated_at DESC, id ASC LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Request
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanRequest(scan func(dest ...any) error) (domain.Request, error) {
	var r domain.Request
	var submittedAt, updatedAt string
	var reviewedAt sql.NullString
	err := scan(&r.ID, &r.CertificateID, &r.ParticipantID, &r.ServerID, &r.Status, &r.IsPublic, &r.ShowInCommunity,
		&r.ReviewNotes, &r.RejectionReason, &r.RevisionRequest, &r.ReviewedBy,
		&submittedAt, &reviewedAt, &updatedAt, &r.Version)
	if err != nil {
		return domain.Request{}, err
	}
	r.SubmittedAt, _ = storage.ParseTime(submittedAt)
	r.ReviewedAt = storage.ParseNullTime(reviewedAt)
	r.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return r, nil
}
