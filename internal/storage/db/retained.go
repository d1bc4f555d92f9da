package db

import (
	"fmt"
	"time"
)

// RetainedFile is a superseded file kept on disk until the user confirms removal
type RetainedFile struct {
	Path       string
	ModID      string
	Version    string
	RetainedAt time.Time
}

// RegisterRetained records a retained .old file
func (d *DB) RegisterRetained(path, modID, version string) error {
	_, err := d.Exec(`
		INSERT INTO retained_files (path, mod_id, version, retained_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			mod_id = excluded.mod_id,
			version = excluded.version,
			retained_at = CURRENT_TIMESTAMP
	`, path, modID, version)
	if err != nil {
		return fmt.Errorf("registering retained file: %w", err)
	}
	return nil
}

// RetainedFiles returns every registered file ordered by path
func (d *DB) RetainedFiles() ([]RetainedFile, error) {
	rows, err := d.Query(`SELECT path, mod_id, COALESCE(version, ''), retained_at FROM retained_files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing retained files: %w", err)
	}
	defer rows.Close()

	var out []RetainedFile
	for rows.Next() {
		var f RetainedFile
		if err := rows.Scan(&f.Path, &f.ModID, &f.Version, &f.RetainedAt); err != nil {
			return nil, fmt.Errorf("scanning retained file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ForgetRetained removes a retained file registration
func (d *DB) ForgetRetained(path string) error {
	if _, err := d.Exec(`DELETE FROM retained_files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("forgetting retained file: %w", err)
	}
	return nil
}
