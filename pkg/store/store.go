package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id            TEXT PRIMARY KEY,
	parent_id     TEXT NOT NULL,
	stream_kind   TEXT NOT NULL,
	author_id     TEXT,
	author_handle TEXT,
	text          TEXT,
	created_at    TEXT,
	metrics       TEXT,
	fetched_at    TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);
CREATE INDEX IF NOT EXISTS idx_items_kind ON items(stream_kind);

CREATE TABLE IF NOT EXISTS classifications (
	item_id       TEXT PRIMARY KEY,
	category      TEXT,
	summary       TEXT,
	priority      INTEGER DEFAULT 0,
	classified_at TEXT DEFAULT (datetime('now')),
	FOREIGN KEY (item_id) REFERENCES items(id)
);

CREATE TABLE IF NOT EXISTS watermarks (
	parent_id   TEXT NOT NULL,
	stream_kind TEXT NOT NULL,
	direction   TEXT NOT NULL,
	last_id     TEXT,
	updated_at  TEXT DEFAULT (datetime('now')),
	PRIMARY KEY (parent_id, stream_kind, direction)
);
`

// Store provides durable persistence for items, classifications and
// watermarks over a single SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Production-safe pragmas: WAL journaling, busy timeout, foreign keys.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("store: mkdir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// The pipeline is single-writer; one connection also keeps :memory:
	// databases coherent across the pool.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
