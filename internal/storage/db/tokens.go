package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// StoredToken represents an API token stored in the database
type StoredToken struct {
	Site      domain.SourceSite
	APIKey    string
	UpdatedAt time.Time
}

// SaveToken saves or updates the API key for a catalog
func (d *DB) SaveToken(site domain.SourceSite, apiKey string) error {
	_, err := d.Exec(`
        INSERT INTO auth_tokens (source_id, token_data, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(source_id) DO UPDATE SET
            token_data = excluded.token_data,
            updated_at = CURRENT_TIMESTAMP
    `, site.String(), apiKey)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// GetToken retrieves the API key for a catalog. Returns nil if none is stored.
func (d *DB) GetToken(site domain.SourceSite) (*StoredToken, error) {
	token := StoredToken{Site: site}
	err := d.QueryRow(`
        SELECT token_data, updated_at
        FROM auth_tokens
        WHERE source_id = ?
    `, site.String()).Scan(&token.APIKey, &token.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes the API key for a catalog
func (d *DB) DeleteToken(site domain.SourceSite) error {
	_, err := d.Exec("DELETE FROM auth_tokens WHERE source_id = ?", site.String())
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
