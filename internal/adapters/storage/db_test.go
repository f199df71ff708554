package storage

import (
	"database/sql"
	"slices"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func schemaNames(t *testing.T, db *sql.DB, kind string) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name`, kind)
	if err != nil {
		t.Fatalf("list %ss: %v", kind, err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan %s name: %v", kind, err)
		}
		names = append(names, name)
	}
	return names
}

func mustMigrate(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
}

func TestMigrateDB_Fresh(t *testing.T) {
	db := openTestDB(t)
	if v, err := SchemaVersion(db); err != nil || v != 0 {
		t.Fatalf("SchemaVersion before migrating = %d, %v", v, err)
	}
	mustMigrate(t, db)

	wantTables := []string{
		"account", "audit_log", "event_registrations", "events", "impact_logs",
		"ops_compliance", "ops_equipment", "ops_finances", "ops_tasks", "outbox",
		"participant_certificate_sharing", "participant_certifications", "profiles",
		"schema_version", "server_profiles",
	}
	if got := schemaNames(t, db, "table"); !slices.Equal(got, wantTables) {
		t.Errorf("tables = %v\nwant %v", got, wantTables)
	}
	indexes := schemaNames(t, db, "index")
	for _, idx := range []string{"sharing_one_open_request", "outbox_due", "audit_log_timestamp", "impact_logs_logged_at"} {
		if !slices.Contains(indexes, idx) {
			t.Errorf("missing index %s (have %v)", idx, indexes)
		}
	}

	var applied int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&applied); err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if applied != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", applied, len(migrations))
	}
	if v, _ := SchemaVersion(db); v != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", v, LatestSchemaVersion())
	}
}

// TestMigrateDB_RerunKeepsData migrates a database holding a participant and
// checks a second run changes nothing.
func TestMigrateDB_RerunKeepsData(t *testing.T) {
	db := openTestDB(t)
	mustMigrate(t, db)
	for _, q := range []string{
		`INSERT INTO account (id, email, role, created_at) VALUES ('a1', 'aroha@example.org', 'participant', '2026-01-01T10:00:00Z')`,
		`INSERT INTO profiles (id, account_id, display_name, created_at) VALUES ('p1', 'a1', 'Aroha', '2026-01-01T10:00:00Z')`,
	} {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	mustMigrate(t, db)

	var name string
	if err := db.QueryRow(`SELECT display_name FROM profiles WHERE id = 'p1'`).Scan(&name); err != nil || name != "Aroha" {
		t.Errorf("profile after rerun = %q, %v", name, err)
	}
	if v, _ := SchemaVersion(db); v != LatestSchemaVersion() {
		t.Errorf("version after rerun = %d", v)
	}
}

// TestMigrateDB_UpgradesFromBaseline brings a baseline-only database with an
// existing account up to date.
func TestMigrateDB_UpgradesFromBaseline(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Exec(`CREATE TABLE schema_version (version INTEGER PRIMARY KEY, description TEXT NOT NULL, applied_at TEXT NOT NULL DEFAULT '')`); err != nil {
		t.Fatalf("create schema_version: %v", err)
	}
	if err := applyMigration(db, migrations[0]); err != nil {
		t.Fatalf("apply baseline: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO account (id, email, role, created_at) VALUES ('adm', 'admin@ecocrew.local', 'admin', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if slices.Contains(schemaNames(t, db, "table"), "ops_tasks") {
		t.Fatal("baseline should not create operational tables")
	}

	mustMigrate(t, db)

	if !slices.Contains(schemaNames(t, db, "table"), "ops_tasks") {
		t.Error("ops_tasks missing after upgrade")
	}
	var email string
	if err := db.QueryRow(`SELECT email FROM account WHERE id = 'adm'`).Scan(&email); err != nil || email != "admin@ecocrew.local" {
		t.Errorf("admin after upgrade = %q, %v", email, err)
	}
}

// TestMigrateDB_FailedStepRollsBack checks a broken migration leaves neither
// its tables nor its version row behind.
func TestMigrateDB_FailedStepRollsBack(t *testing.T) {
	db := openTestDB(t)
	mustMigrate(t, db)

	saved := migrations
	t.Cleanup(func() { migrations = saved })
	migrations = append(slices.Clone(saved), migration{
		version:     LatestSchemaVersion() + 1,
		description: "broken",
		statements:  `CREATE TABLE half_done (id TEXT PRIMARY KEY); INSERT INTO no_such_table VALUES (1);`,
	})

	if err := MigrateDB(db, ":memory:"); err == nil {
		t.Fatal("expected the broken migration to fail")
	}
	if slices.Contains(schemaNames(t, db, "table"), "half_done") {
		t.Error("half_done survived the rollback")
	}
	if v, _ := SchemaVersion(db); v != saved[len(saved)-1].version {
		t.Errorf("version = %d, want %d", v, saved[len(saved)-1].version)
	}
}

func TestMigrateDB_OneOpenSharingRequest(t *testing.T) {
	db := openTestDB(t)
	mustMigrate(t, db)
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		t.Fatalf("disable foreign keys: %v", err)
	}

	insert := func(id, server, status string) error {
		_, err := db.Exec(`INSERT INTO participant_certificate_sharing
			(id, certificate_id, participant_id, server_id, status, submitted_at, updated_at)
			VALUES (?, 'c1', 'p1', ?, ?, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`, id, server, status)
		return err
	}

	if err := insert("r1", "s1", "rejected"); err != nil {
		t.Fatalf("insert rejected: %v", err)
	}
	if err := insert("r2", "s1", "pending"); err != nil {
		t.Fatalf("insert pending after rejection: %v", err)
	}
	if err := insert("r3", "s1", "needs_revision"); err == nil {
		t.Error("expected a unique violation for a second open request")
	}
	if err := insert("r4", "s2", "under_review"); err != nil {
		t.Errorf("open request to another server: %v", err)
	}
}

func TestMigrateDB_Constraints(t *testing.T) {
	db := openTestDB(t)
	mustMigrate(t, db)

	tests := []struct {
		name  string
		query string
	}{
		{"sharing without certificate", `INSERT INTO participant_certificate_sharing
			(id, certificate_id, participant_id, server_id, status, submitted_at, updated_at)
			VALUES ('r1', 'ghost', 'p1', 's1', 'pending', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`},
		{"task without server", `INSERT INTO ops_tasks (id, server_id, title, status, created_at, updated_at)
			VALUES ('t1', 'ghost', 'Bags', 'todo', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`},
		{"duplicate email", `INSERT INTO account (id, email, role, created_at)
			VALUES ('a1', 'x@example.org', 'participant', ''), ('a2', 'x@example.org', 'participant', '')`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Exec(tt.query); err == nil {
				t.Error("expected a constraint violation")
			}
		})
	}

	for _, q := range []string{
		`INSERT INTO account (id, email, role, created_at) VALUES ('srv-acc', 'crew@coastcare.org', 'server', '')`,
		`INSERT INTO server_profiles (id, account_id, organization_name, active, created_at) VALUES ('srv', 'srv-acc', 'Coast Care', 1, '')`,
	} {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_, err := db.Exec(`INSERT INTO ops_finances (id, server_id, kind, amount_cents, occurred_on, created_at)
		VALUES ('f1', 'srv', 'expense', 0, '2026-01-01', '')`)
	if err == nil {
		t.Error("expected the amount check to reject zero")
	}
}
