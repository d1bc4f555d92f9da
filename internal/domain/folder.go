package domain

// Folder is a managed mod folder and the game profile its files target
type Folder struct {
	Name        string
	Path        string
	GameVersion string // e.g. "1.20.1"; used when a file declares no game versions
	Loader      string // e.g. "fabric"; empty means any
}

// GameVersions returns the folder's game version as a set, or nil if unset
func (f Folder) GameVersions() []string {
	if f.GameVersion == "" {
		return nil
	}
	return []string{f.GameVersion}
}
