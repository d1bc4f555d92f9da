// Package cache manages the staging area where downloads are written and
// verified before they are placed into a mod folder.
package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Cache manages the download staging area
type Cache struct {
	basePath string
}

// New creates a new staging area rooted at basePath
func New(basePath string) *Cache {
	return &Cache{basePath: basePath}
}

// Path returns the root of the staging area
func (c *Cache) Path() string {
	return c.basePath
}

// ActionPath returns the directory that holds one action's staged files
func (c *Cache) ActionPath(actionID string) string {
	return filepath.Join(c.basePath, actionID)
}

// Stage prepares the action directory and returns where fileName should be written
func (c *Cache) Stage(actionID, fileName string) (string, error) {
	dir := c.ActionPath(actionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating staging dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(fileName)), nil
}

// Exists checks if an action has a staging directory
func (c *Cache) Exists(actionID string) bool {
	info, err := os.Stat(c.ActionPath(actionID))
	return err == nil && info.IsDir()
}

// Release removes everything staged for an action
func (c *Cache) Release(actionID string) error {
	if err := os.RemoveAll(c.ActionPath(actionID)); err != nil {
		return fmt.Errorf("releasing staged files: %w", err)
	}
	return nil
}

// List returns the action ids that still have staged files
func (c *Cache) List() ([]string, error) {
	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing staging area: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Clean removes every staged file left behind by interrupted batches
func (c *Cache) Clean() error {
	ids, err := c.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := c.Release(id); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the total size of staged files
func (c *Cache) Size() (int64, error) {
	var totalSize int64
	err := filepath.WalkDir(c.basePath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		totalSize += info.Size()
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("calculating staging size: %w", err)
	}

	return totalSize, nil
}
