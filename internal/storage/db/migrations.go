package db

import (
	"database/sql"
	"fmt"
)

func (d *DB) migrate() error {
	// Create migrations table if it doesn't exist
	if _, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var version int
	err := d.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return fmt.Errorf("getting schema version: %w", err)
	}

	migrations := []func(*sql.Tx) error{
		migrateV1,
		migrateV2,
		migrateV3,
	}

	// Each step and its version row land together or not at all
	for i := version; i < len(migrations); i++ {
		step := i + 1
		err := d.inTx(func(tx *sql.Tx) error {
			if err := migrations[i](tx); err != nil {
				return fmt.Errorf("migration %d: %w", step, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", step); err != nil {
				return fmt.Errorf("recording migration %d: %w", step, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func execAll(tx *sql.Tx, statements []string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			head := stmt
			if len(head) > 50 {
				head = head[:50]
			}
			return fmt.Errorf("executing %q: %w", head, err)
		}
	}
	return nil
}

func migrateV1(tx *sql.Tx) error {
	return execAll(tx, []string{
		`CREATE TABLE auth_tokens (
			source_id TEXT PRIMARY KEY,
			token_data BLOB,
			expires_at DATETIME,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE tags (
			category INTEGER NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY(category, value)
		)`,
		`CREATE TABLE mod_tags (
			mod_id TEXT NOT NULL,
			category INTEGER NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY(mod_id, category, value),
			FOREIGN KEY(category, value) REFERENCES tags(category, value) ON DELETE CASCADE
		)`,
		`CREATE TABLE mod_aliases (
			mod_id TEXT PRIMARY KEY,
			alias TEXT NOT NULL
		)`,
		`CREATE TABLE update_ignores (
			mod_id TEXT NOT NULL,
			site TEXT NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(mod_id, site, version)
		)`,
	})
}

func migrateV2(tx *sql.Tx) error {
	return execAll(tx, []string{
		`CREATE TABLE rename_history (
			pattern TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			used_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// Superseded files kept as .old until the user purges them
		`CREATE TABLE retained_files (
			path TEXT PRIMARY KEY,
			mod_id TEXT NOT NULL,
			version TEXT,
			retained_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	})
}

func migrateV3(tx *sql.Tx) error {
	// Remembers which catalog a file was downloaded from, keyed by content hash
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS file_sources (
			file_hash TEXT PRIMARY KEY,
			site TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}
