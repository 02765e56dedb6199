package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// formatVersion is written to PRAGMA user_version. Bump it whenever
// schema.sql changes in a way older builds cannot read.
const formatVersion = 1

// ErrNewerFormat is returned by Open for a database written by a newer
// build.
var ErrNewerFormat = errors.New("web storage was written by a newer version")

// Connection settings, applied by the driver to every connection:
// WAL so a reader never waits on the CLI's writer, and a busy timeout so
// two processes sharing one session file queue instead of failing.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
}

// Store is web storage in a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens the storage file at path, creating it and its table when
// missing. Opening the same file again keeps its contents.
func Open(path string) (*Store, error) {
	if strings.ContainsRune(path, '?') {
		return nil, fmt.Errorf("open web storage %q: path must not contain '?'", path)
	}

	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open web storage %q: %w", path, err)
	}
	// One writer at a time is all SQLite allows.
	db.SetMaxOpenConns(1)

	if err := initialize(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open web storage %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

func initialize(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version > formatVersion {
		return fmt.Errorf("%w (format %d, this build reads %d)", ErrNewerFormat, version, formatVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if version < formatVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", formatVersion)); err != nil {
			return fmt.Errorf("set format version: %w", err)
		}
	}
	return nil
}

// Close closes the database. Calling it more than once is safe.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
