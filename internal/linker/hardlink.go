package linker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// HardlinkLinker places files using hard links, copying when src and dst
// are on different filesystems
type HardlinkLinker struct{}

// NewHardlink creates a new hardlink linker
func NewHardlink() *HardlinkLinker {
	return &HardlinkLinker{}
}

// Place links src at dst. The link is made under a temporary name and renamed
// over dst, so an existing dst is replaced in one step.
func (l *HardlinkLinker) Place(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: creating destination dir: %w", domain.ErrIO, err)
	}

	tmp := dst + tempSuffix
	if err := removeFile(tmp); err != nil {
		return fmt.Errorf("%w: clearing temporary file: %w", domain.ErrIO, err)
	}
	if err := os.Link(src, tmp); err != nil {
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrIO, err)
		}
		return nil
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: renaming into place: %w", domain.ErrIO, err)
	}
	return nil
}

// Remove deletes the file at dst
func (l *HardlinkLinker) Remove(dst string) error {
	if err := removeFile(dst); err != nil {
		return fmt.Errorf("%w: removing file: %w", domain.ErrIO, err)
	}
	return nil
}

// Method returns the placement method
func (l *HardlinkLinker) Method() domain.PlacementMethod {
	return domain.PlaceHardlink
}
