package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration is one schema step. Versions are 1-based and contiguous.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// migrations[i] has Version i+1.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema with commits",
		Up:          migrationV1Up,
		Down:        migrationV1Down,
	},
	{
		Version:     2,
		Description: "Record the preedit that produced each commit",
		Up:          migrationV2Up,
		Down:        migrationV2Down,
	},
}

const migrationV1Up = `
CREATE TABLE IF NOT EXISTS commits (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    text            TEXT NOT NULL,
    schema_id       TEXT NOT NULL DEFAULT '',
    session_id      INTEGER NOT NULL DEFAULT 0,
    created_ns      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commits_created ON commits(created_ns);
CREATE INDEX IF NOT EXISTS idx_commits_text ON commits(text);
`

const migrationV1Down = `
DROP INDEX IF EXISTS idx_commits_text;
DROP INDEX IF EXISTS idx_commits_created;
DROP TABLE IF EXISTS commits;
`

const migrationV2Up = `
ALTER TABLE commits ADD COLUMN preedit TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS idx_commits_schema ON commits(schema_id, created_ns);
`

const migrationV2Down = `
DROP INDEX IF EXISTS idx_commits_schema;
ALTER TABLE commits DROP COLUMN preedit;
`

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version     INTEGER PRIMARY KEY,
    applied_at  INTEGER NOT NULL,
    description TEXT
)`

// inTx runs fn in a transaction and commits if it returns nil.
func inTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// MigrateDB brings the database up to the latest version. Each migration is
// applied and recorded in its own transaction.
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec(createMigrationsTable); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	current, err := currentVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations[min(current, len(migrations)):] {
		err := inTx(db, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.Up); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at, description)
				VALUES (?, ?, ?)`, m.Version, time.Now().UnixNano(), m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	return nil
}

func currentVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// RollbackMigration undoes the newest applied migration.
func RollbackMigration(db *sql.DB) error {
	current, err := currentVersion(db)
	if err != nil {
		return err
	}
	if current == 0 || current > len(migrations) {
		return fmt.Errorf("cannot roll back schema version %d", current)
	}
	m := migrations[current-1]

	err = inTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(m.Down); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", m.Version)
		return err
	})
	if err != nil {
		return fmt.Errorf("roll back migration %d: %w", m.Version, err)
	}
	return nil
}

// MigrationStatus is the schema version of a database.
type MigrationStatus struct {
	CurrentVersion int
	LatestVersion  int
	Pending        []Migration
}

// GetMigrationStatus reads the schema version. A database that was never
// migrated has every migration pending.
func GetMigrationStatus(db *sql.DB) (*MigrationStatus, error) {
	current, err := currentVersion(db)
	if err != nil {
		current = 0
	}
	return &MigrationStatus{
		CurrentVersion: current,
		LatestVersion:  len(migrations),
		Pending:        migrations[min(current, len(migrations)):],
	}, nil
}
