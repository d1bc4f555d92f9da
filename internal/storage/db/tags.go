package db

import (
	"fmt"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// TagAttachment is one tag attached to a mod identity
type TagAttachment struct {
	ModID string
	Tag   domain.TagRef
}

// DefineTag records a tag as defined. Defining an existing tag is a no-op.
func (d *DB) DefineTag(tag domain.TagRef) error {
	_, err := d.Exec(`INSERT OR IGNORE INTO tags (category, value) VALUES (?, ?)`, int(tag.Category), tag.Value)
	if err != nil {
		return fmt.Errorf("defining tag: %w", err)
	}
	return nil
}

// UndefineTag removes a tag definition and every attachment of it
func (d *DB) UndefineTag(tag domain.TagRef) error {
	_, err := d.Exec(`DELETE FROM tags WHERE category = ? AND value = ?`, int(tag.Category), tag.Value)
	if err != nil {
		return fmt.Errorf("undefining tag: %w", err)
	}
	return nil
}

// DefinedTags returns every defined tag sorted by category then value
func (d *DB) DefinedTags() ([]domain.TagRef, error) {
	rows, err := d.Query(`SELECT category, value FROM tags ORDER BY category, value`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.TagRef
	for rows.Next() {
		var cat int
		var tag domain.TagRef
		if err := rows.Scan(&cat, &tag.Value); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tag.Category = domain.TagCategory(cat)
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// AttachTag attaches a defined tag to a mod identity
func (d *DB) AttachTag(modID string, tag domain.TagRef) error {
	_, err := d.Exec(`INSERT OR IGNORE INTO mod_tags (mod_id, category, value) VALUES (?, ?, ?)`,
		modID, int(tag.Category), tag.Value)
	if err != nil {
		return fmt.Errorf("attaching tag: %w", err)
	}
	return nil
}

// DetachTag removes a tag from a mod identity
func (d *DB) DetachTag(modID string, tag domain.TagRef) error {
	_, err := d.Exec(`DELETE FROM mod_tags WHERE mod_id = ? AND category = ? AND value = ?`,
		modID, int(tag.Category), tag.Value)
	if err != nil {
		return fmt.Errorf("detaching tag: %w", err)
	}
	return nil
}

// TagAttachments returns every attachment ordered by mod id
func (d *DB) TagAttachments() ([]TagAttachment, error) {
	rows, err := d.Query(`SELECT mod_id, category, value FROM mod_tags ORDER BY mod_id, category, value`)
	if err != nil {
		return nil, fmt.Errorf("listing tag attachments: %w", err)
	}
	defer rows.Close()

	var out []TagAttachment
	for rows.Next() {
		var a TagAttachment
		var cat int
		if err := rows.Scan(&a.ModID, &cat, &a.Tag.Value); err != nil {
			return nil, fmt.Errorf("scanning tag attachment: %w", err)
		}
		a.Tag.Category = domain.TagCategory(cat)
		out = append(out, a)
	}
	return out, rows.Err()
}
