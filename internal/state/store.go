// Package state persists pass history in a local SQLite database. The store
// is optional: every failure degrades to a warning so a broken or missing
// database never stops a pass.
package state

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/tagindex/internal/errors"
)

// PassRecord is one completed pass.
type PassRecord struct {
	ID               int64
	BuildID          string
	Started          time.Time
	Finished         time.Time
	Outcome          string
	Documents        int
	Tagged           int
	Tags             int
	PagesWritten     int
	PagesUnchanged   int
	IndexFingerprint string
}

// Store is a SQLite-backed pass history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path and ensures the schema.
// Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StateError("open", err).WithContext("path", path)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.StateError("initialize", err).WithContext("path", path)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS passes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		documents INTEGER NOT NULL,
		tagged INTEGER NOT NULL,
		tags INTEGER NOT NULL,
		pages_written INTEGER NOT NULL,
		pages_unchanged INTEGER NOT NULL,
		index_fingerprint TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_passes_started ON passes(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordPass appends a pass record.
func (s *Store) RecordPass(ctx context.Context, rec PassRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO passes
		 (build_id, started, finished, outcome, documents, tagged, tags, pages_written, pages_unchanged, index_fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.Started.UnixMilli(), rec.Finished.UnixMilli(), rec.Outcome,
		rec.Documents, rec.Tagged, rec.Tags, rec.PagesWritten, rec.PagesUnchanged, rec.IndexFingerprint,
	)
	if err != nil {
		return errors.StateError("record pass", err)
	}
	return nil
}

// LastPass returns the most recent pass, or nil when the history is empty.
func (s *Store) LastPass(ctx context.Context) (*PassRecord, error) {
	recs, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// History returns up to n passes, newest first.
func (s *Store) History(ctx context.Context, n int) ([]PassRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, started, finished, outcome, documents, tagged, tags, pages_written, pages_unchanged, index_fingerprint
		 FROM passes ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.StateError("query history", err)
	}
	defer rows.Close()

	var out []PassRecord
	for rows.Next() {
		var rec PassRecord
		var started, finished int64
		if err := rows.Scan(&rec.ID, &rec.BuildID, &started, &finished, &rec.Outcome,
			&rec.Documents, &rec.Tagged, &rec.Tags, &rec.PagesWritten, &rec.PagesUnchanged, &rec.IndexFingerprint); err != nil {
			return nil, errors.StateError("scan history", err)
		}
		rec.Started = time.UnixMilli(started)
		rec.Finished = time.UnixMilli(finished)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StateError("iterate history", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
