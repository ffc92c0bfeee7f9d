// ABOUTME: SQLite-backed audit trail of curation mutations using modernc.org/sqlite
// ABOUTME: Records which operation touched which domain/example and when

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// AuditAction represents an auditable curation operation.
type AuditAction string

const (
	AuditAddExample       AuditAction = "add_example"
	AuditUpdateCorrection AuditAction = "update_correction"
	AuditResetExamples    AuditAction = "reset_examples"
)

// AuditEntry records one successful mutation against a domain's collection.
type AuditEntry struct {
	ID        string
	Action    AuditAction
	Domain    DomainKey
	ExampleID string // empty for reset
	Timestamp time.Time
}

// AuditStore persists audit entries in SQLite. The schema is created
// automatically and the database runs in WAL mode.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore opens (or creates) the audit database at the given path.
// Parent directories are created if needed.
func NewAuditStore(path string) (*AuditStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating audit database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS audit_log (
			id         TEXT PRIMARY KEY,
			action     TEXT NOT NULL,
			domain     TEXT NOT NULL,
			example_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}

	return &AuditStore{db: db}, nil
}

// Append adds a new entry to the audit log. ID and Timestamp are generated
// when unset.
func (s *AuditStore) Append(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, domain, example_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.Action), string(e.Domain), e.ExampleID, e.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. A limit <= 0 defaults
// to 100.
func (s *AuditStore) List(ctx context.Context, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, domain, example_id, created_at
		 FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var action, domain, tsStr string
		if err := rows.Scan(&e.ID, &action, &domain, &e.ExampleID, &tsStr); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Action = AuditAction(action)
		e.Domain = DomainKey(domain)
		e.Timestamp, err = time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", tsStr, err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *AuditStore) Close() error {
	return s.db.Close()
}
