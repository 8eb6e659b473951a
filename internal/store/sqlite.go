package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the SQLite commit history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InsertCommit records a commit and returns its ID. A zero CreatedAt is set
// to the current time.
func (s *Store) InsertCommit(c *CommitRecord) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	result, err := s.db.Exec(`
		INSERT INTO commits (text, preedit, schema_id, session_id, created_ns)
		VALUES (?, ?, ?, ?, ?)`,
		c.Text, c.Preedit, c.SchemaID, int64(c.Session), c.CreatedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert commit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	c.ID = id
	return id, nil
}

// GetCommit returns the commit with the given ID.
func (s *Store) GetCommit(id int64) (*CommitRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, text, preedit, schema_id, session_id, created_ns
		FROM commits WHERE id = ?`, id)
	c, err := scanCommit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCommit(row scanner) (*CommitRecord, error) {
	var (
		c         CommitRecord
		session   int64
		createdNs int64
	)
	if err := row.Scan(&c.ID, &c.Text, &c.Preedit, &c.SchemaID, &session, &createdNs); err != nil {
		return nil, err
	}
	c.Session = uint64(session)
	c.CreatedAt = time.Unix(0, createdNs)
	return &c, nil
}

// RecentCommits returns up to limit commits, newest first. An empty schemaID
// matches every schema.
func (s *Store) RecentCommits(schemaID string, limit int) ([]CommitRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, text, preedit, schema_id, session_id, created_ns
		FROM commits
		WHERE ? = '' OR schema_id = ?
		ORDER BY created_ns DESC, id DESC
		LIMIT ?`, schemaID, schemaID, limit)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var out []CommitRecord
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// TopCommits returns the most frequently committed texts.
func (s *Store) TopCommits(limit int) ([]Frequency, error) {
	rows, err := s.db.Query(`
		SELECT text, COUNT(*) AS n, MAX(created_ns)
		FROM commits
		GROUP BY text
		ORDER BY n DESC, MAX(created_ns) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query frequencies: %w", err)
	}
	defer rows.Close()

	var out []Frequency
	for rows.Next() {
		var (
			f    Frequency
			last int64
		)
		if err := rows.Scan(&f.Text, &f.Count, &last); err != nil {
			return nil, fmt.Errorf("scan frequency: %w", err)
		}
		f.Last = time.Unix(0, last)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the number of stored commits.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM commits").Scan(&n); err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return n, nil
}

// Prune keeps the newest keep commits and deletes the rest. It returns the
// number of deleted rows.
func (s *Store) Prune(keep int) (int64, error) {
	result, err := s.db.Exec(`
		DELETE FROM commits WHERE id NOT IN (
			SELECT id FROM commits ORDER BY created_ns DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune commits: %w", err)
	}
	return result.RowsAffected()
}

// DeleteBefore deletes commits older than t.
func (s *Store) DeleteBefore(t time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM commits WHERE created_ns < ?", t.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete commits: %w", err)
	}
	return result.RowsAffected()
}

// MigrationStatus reports the schema version of the open database.
func (s *Store) MigrationStatus() (*MigrationStatus, error) {
	return GetMigrationStatus(s.db)
}
