// Package statedb persists small keyed blobs (command history and similar
// caches) in a SQLite database.
package statedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/asheshgoplani/tfdeck/internal/logging"
)

var dbLog = logging.ForComponent(logging.CompStorage)

// SchemaVersion tracks the current database schema version.
// Bump this when adding migrations.
const SchemaVersion = 1

// StateDB wraps a SQLite database used as a key-value store.
// Thread-safe for concurrent use from multiple goroutines within one process.
// Multiple OS processes can safely read/write via WAL mode + busy timeout.
type StateDB struct {
	db   *sql.DB
	path string
}

// Open creates or opens a SQLite database at dbPath with WAL mode and busy timeout.
func Open(dbPath string) (*StateDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("statedb: mkdir: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("statedb: open: %w", err)
	}
	// One writer at a time inside this process; other processes are handled
	// by the busy timeout.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("statedb: ping: %w", err)
	}

	dbLog.Debug("statedb_opened", slog.String("path", dbPath))
	return &StateDB{db: db, path: dbPath}, nil
}

// Close checkpoints WAL and closes the database.
func (s *StateDB) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Path is the database file location.
func (s *StateDB) Path() string { return s.path }

// Migrate creates tables if they don't exist and records the schema version.
func (s *StateDB) Migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("statedb: create metadata: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("statedb: create kv: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)
	`, strconv.Itoa(SchemaVersion)); err != nil {
		return fmt.Errorf("statedb: set schema version: %w", err)
	}

	return tx.Commit()
}

// --- Key-value ---

// Get returns the value stored under key. ok is false when the key is absent.
func (s *StateDB) Get(key string) (value []byte, ok bool, err error) {
	err = s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("statedb: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key and bumps the change marker in the same
// transaction.
func (s *StateDB) Set(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	now := time.Now().UnixNano()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin set: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, now,
	); err != nil {
		return fmt.Errorf("statedb: set %s: %w", key, err)
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('last_modified', ?)",
		strconv.FormatInt(now, 10),
	); err != nil {
		return fmt.Errorf("statedb: touch: %w", err)
	}
	return tx.Commit()
}

// Update rewrites the value under key inside one write transaction. fn
// sees the current value (ok is false when the key is absent) and returns
// the replacement; returning an error leaves the key untouched. The write
// lock is taken up front with BEGIN IMMEDIATE, so updaters in this or
// another process are serialized.
func (s *StateDB) Update(key string, fn func(old []byte, ok bool) ([]byte, error)) error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("statedb: conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("statedb: begin update: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	var old []byte
	ok := true
	switch qerr := conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&old); {
	case errors.Is(qerr, sql.ErrNoRows):
		ok = false
	case qerr != nil:
		return fmt.Errorf("statedb: update read %s: %w", key, qerr)
	}

	value, err := fn(old, ok)
	if err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	now := time.Now().UnixNano()
	if _, err := conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, now,
	); err != nil {
		return fmt.Errorf("statedb: update %s: %w", key, err)
	}
	if _, err := conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('last_modified', ?)",
		strconv.FormatInt(now, 10),
	); err != nil {
		return fmt.Errorf("statedb: touch: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("statedb: commit update: %w", err)
	}
	committed = true
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *StateDB) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("statedb: delete %s: %w", key, err)
	}
	return s.Touch()
}

// Keys lists every stored key in lexical order.
func (s *StateDB) Keys() ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("statedb: keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("statedb: scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// --- Metadata ---

// SetMeta sets a key-value pair in the metadata table.
func (s *StateDB) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta gets a value from the metadata table. Returns "" if not found.
func (s *StateDB) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// --- Change detection ---

// Touch updates a metadata timestamp that other tfdeck processes can poll to
// notice history written elsewhere.
func (s *StateDB) Touch() error {
	return s.SetMeta("last_modified", strconv.FormatInt(time.Now().UnixNano(), 10))
}

// LastModified returns the last_modified timestamp from metadata.
func (s *StateDB) LastModified() (int64, error) {
	val, err := s.GetMeta("last_modified")
	if err != nil || val == "" {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
