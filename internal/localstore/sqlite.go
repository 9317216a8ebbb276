package localstore

import (
	"database/sql"
	"errors"
	"fmt"
)

// SQLite stores entries in the kv_entries table of a local database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed store. The database must already be
// migrated (see db.Open).
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Get returns the value stored under key.
func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM kv_entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key.
func (s *SQLite) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
