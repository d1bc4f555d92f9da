package modrinth

import "time"

// Modrinth API v2 response types
// API docs: https://docs.modrinth.com/api/

// Project represents a Modrinth project
type Project struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	ProjectType string   `json:"project_type"` // e.g., "mod"
	ClientSide  string   `json:"client_side"`
	ServerSide  string   `json:"server_side"`
	Loaders     []string `json:"loaders"`
	Updated     string   `json:"updated"`
}

// Version represents one published version of a project
type Version struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	Name          string       `json:"name"`
	VersionNumber string       `json:"version_number"`
	VersionType   string       `json:"version_type"` // release, beta, alpha
	GameVersions  []string     `json:"game_versions"`
	Loaders       []string     `json:"loaders"`
	DatePublished time.Time    `json:"date_published"`
	Files         []File       `json:"files"`
	Dependencies  []Dependency `json:"dependencies"`
}

// File represents a file within a Modrinth version
type File struct {
	Filename string            `json:"filename"`
	URL      string            `json:"url"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
	Hashes   map[string]string `json:"hashes"` // e.g., {"sha512": "...", "sha1": "..."}
}

// Dependency is a version's declared relation to another project
type Dependency struct {
	VersionID      string `json:"version_id"`
	ProjectID      string `json:"project_id"`
	DependencyType string `json:"dependency_type"` // required, optional, incompatible, embedded
}

// PrimaryFile returns the file marked primary, or the first file
func (v Version) PrimaryFile() (File, bool) {
	for _, f := range v.Files {
		if f.Primary {
			return f, true
		}
	}
	if len(v.Files) > 0 {
		return v.Files[0], true
	}
	return File{}, false
}
