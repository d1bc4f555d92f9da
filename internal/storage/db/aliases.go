package db

import "fmt"

// SetAlias sets the display alias for a mod identity. An empty alias removes it.
func (d *DB) SetAlias(modID, alias string) error {
	var err error
	if alias == "" {
		_, err = d.Exec(`DELETE FROM mod_aliases WHERE mod_id = ?`, modID)
	} else {
		_, err = d.Exec(`
			INSERT INTO mod_aliases (mod_id, alias) VALUES (?, ?)
			ON CONFLICT(mod_id) DO UPDATE SET alias = excluded.alias
		`, modID, alias)
	}
	if err != nil {
		return fmt.Errorf("setting alias: %w", err)
	}
	return nil
}

// Aliases returns every alias keyed by mod id
func (d *DB) Aliases() (map[string]string, error) {
	rows, err := d.Query(`SELECT mod_id, alias FROM mod_aliases`)
	if err != nil {
		return nil, fmt.Errorf("listing aliases: %w", err)
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var modID, alias string
		if err := rows.Scan(&modID, &alias); err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}
		aliases[modID] = alias
	}
	return aliases, rows.Err()
}
