package linker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// MoveLinker places files by renaming them, falling back to a copy when
// src and dst are on different filesystems
type MoveLinker struct{}

// NewMove creates a new move linker
func NewMove() *MoveLinker {
	return &MoveLinker{}
}

// Place moves src to dst
func (l *MoveLinker) Place(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: creating destination dir: %w", domain.ErrIO, err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// Cross-device rename fails with EXDEV; copy instead
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing staged file: %w", domain.ErrIO, err)
	}
	return nil
}

// Remove deletes the file at dst
func (l *MoveLinker) Remove(dst string) error {
	if err := removeFile(dst); err != nil {
		return fmt.Errorf("%w: removing file: %w", domain.ErrIO, err)
	}
	return nil
}

// Method returns the placement method
func (l *MoveLinker) Method() domain.PlacementMethod {
	return domain.PlaceMove
}
