// Package db persists engine state that is not derivable from the mod folder:
// tags, aliases, update ignores, rename history, retained files and API keys.
package db

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the data directory
const FileName = "mcmm.db"

const pragmas = "PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the state database in dataDir
func Open(dataDir string) (*DB, error) {
	return New(filepath.Join(dataDir, FileName))
}

// New opens the database at path and brings its schema up to date.
// ":memory:" gives a private in-memory database.
func New(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection serializes writers and keeps ":memory:" databases shared
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(pragmas); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	database := &DB{DB: sqlDB}
	if err := database.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return database, nil
}

// inTx runs fn in a transaction, committing only when fn succeeds
func (d *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
