package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// The same schema serves the review store and the local cache file;
// each side only touches its own tables.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS reviews (
		id         TEXT    PRIMARY KEY,
		item_id    TEXT    NOT NULL,
		rating     INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
		comment    TEXT    NOT NULL,
		author     TEXT    NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_item_created
		ON reviews (item_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT     PRIMARY KEY,
		value      BLOB     NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// SchemaVersion returns how many migrations have been applied to db.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// migrate applies the migrations newer than the recorded schema version,
// each in its own transaction together with the version bump.
func migrate(db *sql.DB) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this binary (%d)", current, len(migrations))
	}

	for i := current; i < len(migrations); i++ {
		if err := applyMigration(db, i); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, i int) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	if _, err = tx.Exec(migrations[i]); err != nil {
		return err
	}
	// PRAGMA does not accept bound parameters.
	if _, err = tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
		return err
	}
	return tx.Commit()
}
