// Package storagetest opens migrated in-memory databases and seeds the rows
// that foreign keys require, for use by store tests.
package storagetest

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"ecocrew/internal/adapters/storage"
)

const seedTime = "2026-01-01T00:00:00.000000000Z"

// OpenDB returns a fully migrated in-memory database closed at test cleanup.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func mustExec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("seed %q: %v", query, err)
	}
}

// SeedAccount inserts a bare account row.
func SeedAccount(t testing.TB, db *sql.DB, id, role string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO account (id, email, role, created_at) VALUES (?, ?, ?, ?)`,
		id, id+"@example.org", role, seedTime)
}

// SeedServer inserts an account and an active server profile for it.
func SeedServer(t testing.TB, db *sql.DB, serverID, accountID string) {
	t.Helper()
	SeedAccount(t, db, accountID, "server")
	mustExec(t, db, `INSERT INTO server_profiles (id, account_id, organization_name, active, created_at) VALUES (?, ?, ?, 1, ?)`,
		serverID, accountID, "Org "+serverID, seedTime)
}

// SeedEvent inserts an upcoming event organized by serverID.
func SeedEvent(t testing.TB, db *sql.DB, eventID, serverID string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO events (id, server_id, title, location, starts_at, status, created_at) VALUES (?, ?, ?, ?, ?, 'upcoming', ?)`,
		eventID, serverID, "Event "+eventID, "Beach", "2026-06-01T09:00:00.000000000Z", seedTime)
}

// SeedCertificate inserts an inactive certificate owned by participantID.
func SeedCertificate(t testing.TB, db *sql.DB, certID, participantID string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO participant_certifications (id, participant_id, name, type, issued_on, file_ref, created_at, updated_at) VALUES (?, ?, ?, 'first_aid', '2026-01-01', ?, ?, ?)`,
		certID, participantID, "Cert "+certID, "files/"+certID+".pdf", seedTime, seedTime)
}
