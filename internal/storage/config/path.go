// Package config provides configuration file parsing and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// ParseFolderPath validates a mod folder path and returns the cleaned absolute path.
// A leading "~/" expands to the user's home directory. It returns an
// ErrInvalidFolder error if:
//   - The path is empty
//   - The path is relative
//   - The path does not exist
//   - The path is a file instead of a directory
func ParseFolderPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: folder path cannot be empty", domain.ErrInvalidFolder)
	}

	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}

	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: folder path must be absolute", domain.ErrInvalidFolder)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", domain.ErrInvalidFolder, path)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidFolder, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is a file, not a directory", domain.ErrInvalidFolder, path)
	}

	return path, nil
}
