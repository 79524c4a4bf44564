// Package store keeps the protocol journal of galaxy runs in SQLite.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/xonecas/zoea-galaxy/internal/config"
)

//go:embed schema.sql
var schema string

// journalVersion is stored in PRAGMA user_version. Journals written by an
// older layout are discarded, not migrated.
const journalVersion = 2

// MemoryPath selects an in-memory journal.
const MemoryPath = ":memory:"

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// Store is a journal database.
type Store struct {
	db   *sql.DB
	path string
}

// New opens the journal in the data directory.
func New() (*Store, error) {
	dir, err := config.EnsureDataDir()
	if err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return Open(filepath.Join(dir, "journal.db"))
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if path == MemoryPath {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens a throwaway in-memory journal.
func OpenMemory() (*Store, error) {
	return Open(MemoryPath)
}

// Path returns where the journal lives.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read journal version: %w", err)
	}
	switch {
	case version == journalVersion:
		return nil
	case version > journalVersion:
		return fmt.Errorf("journal version %d is newer than %d", version, journalVersion)
	case version > 0:
		log.Warn().Int("version", version).Str("path", s.path).Msg("Discarding outdated journal")
		if _, err := s.db.Exec("DROP TABLE IF EXISTS events; DROP TABLE IF EXISTS runs;"); err != nil {
			return fmt.Errorf("drop outdated journal: %w", err)
		}
	}

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", journalVersion)); err != nil {
		return fmt.Errorf("write journal version: %w", err)
	}
	return nil
}
