package linker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// CopyLinker places files by copying them
type CopyLinker struct{}

// NewCopy creates a new copy linker
func NewCopy() *CopyLinker {
	return &CopyLinker{}
}

// Place copies src to dst through a temporary file in the destination directory
func (l *CopyLinker) Place(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return nil
}

// Remove deletes the file at dst
func (l *CopyLinker) Remove(dst string) error {
	if err := removeFile(dst); err != nil {
		return fmt.Errorf("%w: removing file: %w", domain.ErrIO, err)
	}
	return nil
}

// Method returns the placement method
func (l *CopyLinker) Method() domain.PlacementMethod {
	return domain.PlaceCopy
}

func copyFile(src, dst string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating destination dir: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	tmp := dst + tempSuffix
	dstFile, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer func() {
		if err != nil {
			dstFile.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}
	if err = dstFile.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	if err = os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
