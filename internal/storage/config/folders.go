package config

import (
	"fmt"
	"sort"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// FolderConfig is the YAML representation of a managed folder
type FolderConfig struct {
	Name        string `yaml:"name"`
	Path        string `yaml:"path"`
	GameVersion string `yaml:"game_version,omitempty"`
	Loader      string `yaml:"loader,omitempty"`
}

func (f FolderConfig) toDomain() domain.Folder {
	return domain.Folder{
		Name:        f.Name,
		Path:        f.Path,
		GameVersion: f.GameVersion,
		Loader:      f.Loader,
	}
}

// Folder returns the named folder. An empty name selects the default folder,
// or the only folder when exactly one is configured.
func (c *Config) Folder(name string) (domain.Folder, error) {
	if name == "" {
		name = c.DefaultFolder
	}
	if name == "" && len(c.Folders) == 1 {
		return c.Folders[0].toDomain(), nil
	}
	for _, f := range c.Folders {
		if f.Name == name {
			return f.toDomain(), nil
		}
	}
	if name == "" {
		return domain.Folder{}, fmt.Errorf("%w: no folder specified and no default set", domain.ErrInvalidFolder)
	}
	return domain.Folder{}, fmt.Errorf("%w: %q is not configured", domain.ErrInvalidFolder, name)
}

// ListFolders returns every configured folder sorted by name
func (c *Config) ListFolders() []domain.Folder {
	out := make([]domain.Folder, 0, len(c.Folders))
	for _, f := range c.Folders {
		out = append(out, f.toDomain())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetFolder adds or replaces a folder by name
func (c *Config) SetFolder(folder domain.Folder) {
	fc := FolderConfig{
		Name:        folder.Name,
		Path:        folder.Path,
		GameVersion: folder.GameVersion,
		Loader:      folder.Loader,
	}
	for i, f := range c.Folders {
		if f.Name == folder.Name {
			c.Folders[i] = fc
			return
		}
	}
	c.Folders = append(c.Folders, fc)
}

// RemoveFolder deletes a folder from the configuration.
// The default folder is cleared when it is the one removed.
func (c *Config) RemoveFolder(name string) error {
	for i, f := range c.Folders {
		if f.Name == name {
			c.Folders = append(c.Folders[:i], c.Folders[i+1:]...)
			if c.DefaultFolder == name {
				c.DefaultFolder = ""
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not configured", domain.ErrInvalidFolder, name)
}
