// Package sqlite stores documents in a SQLite database, one row per
// locator. Each save replaces the row in a single transaction, so a
// concurrent load sees either the old or the new document.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrJamesThe3rd/oficina/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	locator    TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS document_revisions (
	locator  TEXT NOT NULL,
	content  TEXT NOT NULL,
	saved_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_revisions_locator ON document_revisions(locator);
`

// revisionsKept is how many previous versions survive per locator.
const revisionsKept = 5

type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at path. Use ":memory:" in tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, locator string) (string, error) {
	var content string

	err := s.db.QueryRowContext(ctx, `SELECT content FROM documents WHERE locator = ?`, locator).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", storage.Wrap("load", locator, err)
	}

	return content, nil
}

// SaveAtomic upserts the document, moving the previous content into the
// revision table.
func (s *Store) SaveAtomic(ctx context.Context, locator, content string) error {
	if locator == "" {
		return storage.Wrap("save", locator, storage.ErrEmptyLocator)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Wrap("save", locator, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_revisions (locator, content, saved_at)
		SELECT locator, content, updated_at FROM documents WHERE locator = ?`, locator); err != nil {
		return storage.Wrap("save", locator, fmt.Errorf("archiving revision: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM document_revisions
		WHERE locator = ? AND rowid NOT IN (
			SELECT rowid FROM document_revisions WHERE locator = ? ORDER BY rowid DESC LIMIT ?
		)`, locator, locator, revisionsKept); err != nil {
		return storage.Wrap("save", locator, fmt.Errorf("pruning revisions: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (locator, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(locator) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		locator, content, now); err != nil {
		return storage.Wrap("save", locator, err)
	}

	if err := tx.Commit(); err != nil {
		return storage.Wrap("save", locator, err)
	}

	return nil
}

// Revisions returns up to the last few saved versions, newest first.
func (s *Store) Revisions(ctx context.Context, locator string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content FROM document_revisions WHERE locator = ? ORDER BY rowid DESC`, locator)
	if err != nil {
		return nil, storage.Wrap("revisions", locator, err)
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, storage.Wrap("revisions", locator, err)
		}

		out = append(out, content)
	}

	return out, storage.Wrap("revisions", locator, rows.Err())
}
