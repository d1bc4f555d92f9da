package db

import (
	"database/sql"
	"fmt"
)

const renameHistoryLimit = 20

// RecordRenamePattern saves a successfully applied rename pattern, keeping the
// most recent patterns only
func (d *DB) RecordRenamePattern(pattern string) error {
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO rename_history (pattern, seq)
			VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM rename_history))
			ON CONFLICT(pattern) DO UPDATE SET
				seq = excluded.seq,
				used_at = CURRENT_TIMESTAMP
		`, pattern); err != nil {
			return fmt.Errorf("recording rename pattern: %w", err)
		}

		if _, err := tx.Exec(`
			DELETE FROM rename_history WHERE pattern NOT IN (
				SELECT pattern FROM rename_history ORDER BY seq DESC LIMIT ?
			)
		`, renameHistoryLimit); err != nil {
			return fmt.Errorf("trimming rename history: %w", err)
		}
		return nil
	})
}

// RenameHistory returns saved patterns, most recently used first
func (d *DB) RenameHistory() ([]string, error) {
	rows, err := d.Query(`SELECT pattern FROM rename_history ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing rename history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning rename pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
