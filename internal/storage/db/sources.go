package db

import (
	"fmt"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// SaveFileSource records the catalog a file with the given content hash came from
func (d *DB) SaveFileSource(fileHash string, site domain.SourceSite) error {
	_, err := d.Exec(`
		INSERT INTO file_sources (file_hash, site, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_hash) DO UPDATE SET
			site = excluded.site,
			updated_at = CURRENT_TIMESTAMP
	`, fileHash, site.String())
	if err != nil {
		return fmt.Errorf("saving file source: %w", err)
	}
	return nil
}

// FileSources returns every known file origin keyed by content hash
func (d *DB) FileSources() (map[string]domain.SourceSite, error) {
	rows, err := d.Query(`SELECT file_hash, site FROM file_sources`)
	if err != nil {
		return nil, fmt.Errorf("listing file sources: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.SourceSite)
	for rows.Next() {
		var hash, site string
		if err := rows.Scan(&hash, &site); err != nil {
			return nil, fmt.Errorf("scanning file source: %w", err)
		}
		if s, ok := domain.ParseSourceSite(site); ok {
			out[hash] = s
		}
	}
	return out, rows.Err()
}
