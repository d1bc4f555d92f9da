// Package linker places verified downloads into a managed mod folder.
package linker

import (
	"os"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// tempSuffix marks a partially placed file; the index ignores it
const tempSuffix = ".downloading"

// Linker moves a staged file to its final location in a mod folder.
// Place never leaves a partial file at dst: on failure dst is untouched or removed.
type Linker interface {
	Place(src, dst string) error
	Remove(dst string) error
	Method() domain.PlacementMethod
}

// New creates a linker for the given method
func New(method domain.PlacementMethod) Linker {
	switch method {
	case domain.PlaceHardlink:
		return NewHardlink()
	case domain.PlaceCopy:
		return NewCopy()
	default:
		return NewMove()
	}
}

func removeFile(dst string) error {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
