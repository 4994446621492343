// Package store owns the SQLite connection the graph is written to:
// schema creation, string escaping, statement batching, and the widened
// transactions that make bulk graph construction cheap.
//
// The indexing core only ever writes through this package. It never
// reads the graph back; reading is the downstream consumer's business.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite connection for graph storage.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the graph database at dbPath and creates the
// schema. A schema rejection here is not recoverable mid-run, so any
// error aborts the open.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single-writer discipline: one connection keeps transaction and
	// pragma state unambiguous for the whole run.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory graph database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)&_pragma=synchronous(OFF)&_pragma=temp_store(MEMORY)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// The in-memory database lives and dies with one connection.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, dbPath: ":memory:"}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// BeginBulkWrite relaxes durability for the duration of a bulk load.
// Call EndBulkWrite when done.
func (s *Store) BeginBulkWrite() {
	if s.dbPath == ":memory:" {
		return
	}
	if _, err := s.db.Exec("PRAGMA synchronous = OFF"); err != nil {
		slog.Warn("store.bulk_write.begin", "err", err)
	}
	if _, err := s.db.Exec("PRAGMA temp_store = MEMORY"); err != nil {
		slog.Warn("store.bulk_write.begin", "err", err)
	}
}

// EndBulkWrite restores normal durability after a bulk load.
func (s *Store) EndBulkWrite() {
	if s.dbPath == ":memory:" {
		return
	}
	if _, err := s.db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		slog.Warn("store.bulk_write.end", "err", err)
	}
}

// Checkpoint truncates the WAL and refreshes planner statistics after a
// write-heavy run so the produced database file is compact and ready
// for readers.
func (s *Store) Checkpoint() {
	if s.dbPath == ":memory:" {
		return
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Warn("store.checkpoint", "err", err)
	}
	if _, err := s.db.Exec("PRAGMA optimize"); err != nil {
		slog.Warn("store.optimize", "err", err)
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// DB returns the underlying sql.DB. The indexing core does not read the
// graph back; this exists for consumers and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}
