package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step.
type migration struct {
	version     int
	description string
	statements  string
}

// migrations are applied in order. Never edit a released migration; append a new one.
var migrations = []migration{
	{1, "baseline", schemaV1},
	{2, "server operational records", schemaV2},
	{3, "outbox scheduling and audit indexes", schemaV3},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, or 0 for an untracked database.
// PRE: db is a valid database connection
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB enables WAL and foreign keys, then applies pending migrations.
// Each migration runs in its own transaction together with its version row.
// PRE: db is a valid database connection
// POST: schema is at LatestSchemaVersion
func MigrateDB(db *sql.DB, path string) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		slog.Info("schema_migrated", "db", path, "version", m.version, "description", m.description)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.statements); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, description) VALUES (?, ?)`, m.version, m.description); err != nil {
		return err
	}
	return tx.Commit()
}

const schemaV1 = `
CREATE TABLE IF NOT EXISTS account (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	created_at TEXT NOT NULL,
	failed_logins INTEGER NOT NULL DEFAULT 0,
	locked_until TEXT
);

CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	bio TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	FOREIGN KEY (account_id) REFERENCES account(id)
);

CREATE TABLE IF NOT EXISTS server_profiles (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL UNIQUE,
	organization_name TEXT NOT NULL,
	contact_email TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	FOREIGN KEY (account_id) REFERENCES account(id)
);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	server_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL,
	starts_at TEXT NOT NULL,
	ends_at TEXT,
	capacity INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY (server_id) REFERENCES server_profiles(id)
);

CREATE TABLE IF NOT EXISTS event_registrations (
	id TEXT PRIMARY KEY,
	event_id TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	joined_at TEXT NOT NULL,
	UNIQUE (event_id, participant_id),
	FOREIGN KEY (event_id) REFERENCES events(id),
	FOREIGN KEY (participant_id) REFERENCES account(id)
);

CREATE TABLE IF NOT EXISTS impact_logs (
	id TEXT PRIMARY KEY,
	participant_id TEXT NOT NULL,
	event_id TEXT NOT NULL,
	trash_kg REAL NOT NULL DEFAULT 0,
	recyclables_kg REAL NOT NULL DEFAULT 0,
	volunteer_hours REAL NOT NULL DEFAULT 0,
	trees_planted INTEGER NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	logged_at TEXT NOT NULL,
	FOREIGN KEY (participant_id) REFERENCES account(id),
	FOREIGN KEY (event_id) REFERENCES events(id)
);
CREATE INDEX IF NOT EXISTS impact_logs_logged_at ON impact_logs(logged_at);

CREATE TABLE IF NOT EXISTS participant_certifications (
	id TEXT PRIMARY KEY,
	participant_id TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	issuer TEXT NOT NULL DEFAULT '',
	issued_on TEXT NOT NULL,
	expires_on TEXT,
	file_ref TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (participant_id) REFERENCES account(id)
);

CREATE TABLE IF NOT EXISTS participant_certificate_sharing (
	id TEXT PRIMARY KEY,
	certificate_id TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	server_id TEXT NOT NULL,
	status TEXT NOT NULL,
	is_public INTEGER NOT NULL DEFAULT 0,
	show_in_community INTEGER NOT NULL DEFAULT 0,
	review_notes TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT '',
	revision_request TEXT NOT NULL DEFAULT '',
	reviewed_by TEXT NOT NULL DEFAULT '',
	submitted_at TEXT NOT NULL,
	reviewed_at TEXT,
	updated_at TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (certificate_id) REFERENCES participant_certifications(id),
	FOREIGN KEY (server_id) REFERENCES server_profiles(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS sharing_one_open_request
	ON participant_certificate_sharing(certificate_id, server_id)
	WHERE status IN ('pending', 'under_review', 'needs_revision');

CREATE TABLE IF NOT EXISTS outbox (
	id TEXT PRIMARY KEY,
	action_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	status TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	max_attempts INTEGER NOT NULL DEFAULT 5,
	last_attempted_at TEXT,
	created_at TEXT NOT NULL,
	external_id TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	category TEXT NOT NULL,
	action TEXT NOT NULL,
	severity TEXT NOT NULL,
	actor_id TEXT NOT NULL DEFAULT '',
	actor_email TEXT NOT NULL DEFAULT '',
	actor_role TEXT NOT NULL DEFAULT '',
	resource_id TEXT NOT NULL DEFAULT '',
	resource_type TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT ''
);
`

const schemaV2 = `
CREATE TABLE IF NOT EXISTS ops_tasks (
	id TEXT PRIMARY KEY,
	server_id TEXT NOT NULL,
	event_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	assignee TEXT NOT NULL DEFAULT '',
	due_on TEXT,
	status TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (server_id) REFERENCES server_profiles(id)
);

CREATE TABLE IF NOT EXISTS ops_equipment (
	id TEXT PRIMARY KEY,
	server_id TEXT NOT NULL,
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 0,
	condition TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (server_id) REFERENCES server_profiles(id)
);

CREATE TABLE IF NOT EXISTS ops_compliance (
	id TEXT PRIMARY KEY,
	server_id TEXT NOT NULL,
	title TEXT NOT NULL,
	kind TEXT NOT NULL,
	reference TEXT NOT NULL DEFAULT '',
	valid_from TEXT,
	valid_until TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (server_id) REFERENCES server_profiles(id)
);

CREATE TABLE IF NOT EXISTS ops_finances (
	id TEXT PRIMARY KEY,
	server_id TEXT NOT NULL,
	event_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
	description TEXT NOT NULL DEFAULT '',
	occurred_on TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY (server_id) REFERENCES server_profiles(id)
);
`

const schemaV3 = `
ALTER TABLE outbox ADD COLUMN next_attempt_at TEXT;
UPDATE outbox SET next_attempt_at = created_at WHERE next_attempt_at IS NULL;
CREATE INDEX IF NOT EXISTS outbox_due ON outbox(status, next_attempt_at);
CREATE INDEX IF NOT EXISTS audit_log_timestamp ON audit_log(timestamp);
`
