package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is the layout used for every timestamp column.
const TimeLayout = time.RFC3339Nano

// ErrDuplicate reports a write rejected by a UNIQUE constraint.
var ErrDuplicate = errors.New("duplicate value")

// CheckUnique wraps err with ErrDuplicate when it is a UNIQUE constraint
// violation, and returns it unchanged otherwise.
func CheckUnique(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// migration is one ordered schema step. Steps run inside a transaction.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "baseline",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS account (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS category (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE COLLATE NOCASE,
				description TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS commendation (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				category_id INTEGER NOT NULL,
				title TEXT NOT NULL,
				subcategory TEXT NOT NULL DEFAULT '',
				total_amount INTEGER NOT NULL CHECK (total_amount > 0),
				description TEXT NOT NULL DEFAULT '',
				UNIQUE (category_id, title),
				FOREIGN KEY (category_id) REFERENCES category(id)
			)`,
			`CREATE TABLE IF NOT EXISTS user_commendation (
				user_id TEXT NOT NULL,
				commendation_id INTEGER NOT NULL,
				current_amount INTEGER NOT NULL DEFAULT 0 CHECK (current_amount >= 0),
				updated_at TEXT NOT NULL,
				PRIMARY KEY (user_id, commendation_id),
				FOREIGN KEY (user_id) REFERENCES account(id),
				FOREIGN KEY (commendation_id) REFERENCES commendation(id)
			)`,
		},
	},
	{
		version: 2,
		name:    "lookup indexes",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_commendation_category ON commendation(category_id)`,
			`CREATE INDEX IF NOT EXISTS idx_user_commendation_commendation ON user_commendation(commendation_id)`,
		},
	},
	{
		version: 3,
		name:    "account activation",
		stmts: []string{
			`ALTER TABLE account ADD COLUMN status TEXT NOT NULL DEFAULT 'active'`,
			`CREATE TABLE IF NOT EXISTS activation_token (
				id TEXT PRIMARY KEY,
				account_id TEXT NOT NULL,
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				used INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				FOREIGN KEY (account_id) REFERENCES account(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_activation_token_account ON activation_token(account_id)`,
		},
	},
}

// Open opens the SQLite database at path with WAL, foreign keys and a busy timeout.
// ":memory:" opens a private in-memory database on a single connection.
// PRE: path is non-empty
// POST: Returns a pinged connection pool; schema is not migrated
func Open(path string) (*sql.DB, error) {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// MigrateDB applies every migration newer than the recorded schema version.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion(); re-running is a no-op
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
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
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_event", "event", "migrated", "version", m.version, "name", m.name)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().UTC().Format(TimeLayout)); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration, 0 for a fresh database.
// PRE: db is a valid database connection
// POST: Returns the version or an error if the query fails
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// LatestSchemaVersion returns the version of the newest known migration.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// ParseTime parses a timestamp column. Empty strings yield the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

// FormatTime formats t for storage. The zero time is stored as NULL.
func FormatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(TimeLayout)
}
