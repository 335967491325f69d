// Package sqlite provides the file-backed TableStore used by pipeline runs.
// One store handle owns the database file for its lifetime; the connection
// is opened in exclusive locking mode so overlapping pipeline invocations
// (e.g. accidental concurrent cron runs) block instead of interleaving
// writes.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Option configures a TableStore.
type Option func(*TableStore)

// WithLogger attaches a logger for migration and fallback events.
func WithLogger(log zerolog.Logger) Option {
	return func(s *TableStore) { s.log = log }
}

// WithRecreateOnConflict enables the destructive schema-migration fallback:
// on an irreconcilable column type conflict the table is dropped and
// recreated from the incoming schema, losing its rows. Every use is logged
// as a data-loss warning. Off by default.
func WithRecreateOnConflict() Option {
	return func(s *TableStore) { s.recreateOnConflict = true }
}

// Open opens (creating if needed) the database file at path.
func Open(path string, opts ...Option) (*TableStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_locking_mode=EXCLUSIVE", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps the exclusive lock meaningful and serializes
	// all writes within the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	s := &TableStore{db: db, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
