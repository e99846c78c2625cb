// Package history keeps a local log of resolutions in SQLite.
// Recording is best effort: callers log failures and move on.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tiksnap/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS resolutions (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	canonical  TEXT NOT NULL,
	backend    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	status     INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS resolutions_created_at ON resolutions (created_at DESC);
`

// Store is a resolution log backed by a SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// One writer at a time; the CLI and server never need more.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an entry. Missing ID and CreatedAt are filled in.
func (s *Store) Record(ctx context.Context, e media.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = s.now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (id, source, canonical, backend, type, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Source, e.Canonical, e.Backend, string(e.Type), e.Status, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording history: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]media.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, canonical, backend, type, status, created_at
		 FROM resolutions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var e media.HistoryEntry
		var typ string
		if err := rows.Scan(&e.ID, &e.Source, &e.Canonical, &e.Backend, &typ, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		e.Type = media.ContentType(typ)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resolutions`)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return res.RowsAffected()
}
