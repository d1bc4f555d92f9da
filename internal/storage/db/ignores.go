package db

import (
	"fmt"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// AddIgnore records that an update should be skipped
func (d *DB) AddIgnore(ig domain.Ignore) error {
	_, err := d.Exec(`INSERT OR IGNORE INTO update_ignores (mod_id, site, version) VALUES (?, ?, ?)`,
		ig.ModID, ig.Site.String(), ig.Version)
	if err != nil {
		return fmt.Errorf("adding ignore: %w", err)
	}
	return nil
}

// Ignores returns every recorded ignore
func (d *DB) Ignores() ([]domain.Ignore, error) {
	rows, err := d.Query(`SELECT mod_id, site, version FROM update_ignores ORDER BY mod_id, site, version`)
	if err != nil {
		return nil, fmt.Errorf("listing ignores: %w", err)
	}
	defer rows.Close()

	var out []domain.Ignore
	for rows.Next() {
		var ig domain.Ignore
		var site string
		if err := rows.Scan(&ig.ModID, &site, &ig.Version); err != nil {
			return nil, fmt.Errorf("scanning ignore: %w", err)
		}
		ig.Site, _ = domain.ParseSourceSite(site)
		out = append(out, ig)
	}
	return out, rows.Err()
}

// ClearIgnores removes the ignores of one mod, or every ignore when modID is empty.
// Returns the number of rows removed.
func (d *DB) ClearIgnores(modID string) (int64, error) {
	query := `DELETE FROM update_ignores`
	var args []any
	if modID != "" {
		query += ` WHERE mod_id = ?`
		args = append(args, modID)
	}
	res, err := d.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("clearing ignores: %w", err)
	}
	return res.RowsAffected()
}
