package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// SourceSite identifies where a mod file came from
type SourceSite int

const (
	SiteLocal SourceSite = iota // Default: no known remote origin
	SiteCurseforge
	SiteModrinth
	SiteOptifine
	SiteReplay
)

func (s SourceSite) String() string {
	switch s {
	case SiteLocal:
		return "local"
	case SiteCurseforge:
		return "curseforge"
	case SiteModrinth:
		return "modrinth"
	case SiteOptifine:
		return "optifine"
	case SiteReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// ParseSourceSite converts a string to SourceSite.
// Returns false for unrecognized names.
func ParseSourceSite(s string) (SourceSite, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return SiteLocal, true
	case "curseforge":
		return SiteCurseforge, true
	case "modrinth":
		return SiteModrinth, true
	case "optifine":
		return SiteOptifine, true
	case "replay", "replaymod":
		return SiteReplay, true
	default:
		return SiteLocal, false
	}
}

// ModState is the lifecycle state of a file in a managed folder
type ModState int

const (
	StateActive   ModState = iota // <name>.jar
	StateDisabled                 // <name>.jar.disabled
	StateOld                      // <name>.jar.old
)

func (s ModState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	case StateOld:
		return "old"
	default:
		return "unknown"
	}
}

// File suffixes that encode ModState on disk.
const (
	SuffixJar      = ".jar"
	SuffixDisabled = ".disabled"
	SuffixOld      = ".old"
)

// StateFromFileName classifies a file by its suffix chain.
// Returns false for files that are not mods (including in-progress downloads).
func StateFromFileName(name string) (ModState, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, SuffixJar+SuffixOld), strings.HasSuffix(lower, SuffixJar+SuffixDisabled+SuffixOld):
		return StateOld, true
	case strings.HasSuffix(lower, SuffixJar+SuffixDisabled):
		return StateDisabled, true
	case strings.HasSuffix(lower, SuffixJar):
		return StateActive, true
	default:
		return StateActive, false
	}
}

// SplitFileName splits a mod file name into its base name and full suffix chain,
// e.g. "sodium-0.5.jar.disabled" -> ("sodium-0.5", ".jar.disabled").
func SplitFileName(name string) (base, suffix string) {
	base = filepath.Base(name)
	for {
		ext := filepath.Ext(base)
		switch strings.ToLower(ext) {
		case SuffixJar, SuffixDisabled, SuffixOld:
			suffix = ext + suffix
			base = strings.TrimSuffix(base, ext)
		default:
			return base, suffix
		}
	}
}

// PathForState returns the path a mod file takes when moved to state.
// Demoting keeps a disabled marker ("x.jar.disabled.old"); enabling or
// disabling drops any ".old".
func PathForState(path string, state ModState) string {
	dir, name := filepath.Split(path)
	base, suffix := SplitFileName(name)
	lower := strings.ToLower(suffix)
	disabled := strings.Contains(lower, SuffixDisabled)

	switch state {
	case StateOld:
		if strings.HasSuffix(lower, SuffixOld) {
			return path
		}
		return path + SuffixOld
	case StateDisabled:
		return dir + base + SuffixJar + SuffixDisabled
	default:
		if !disabled && !strings.HasSuffix(lower, SuffixOld) {
			return path
		}
		return dir + base + SuffixJar
	}
}

// RelationKind is the kind of a declared relationship between mods
type RelationKind int

const (
	RelationDepends RelationKind = iota
	RelationConflicts
	RelationBreaks
)

func (k RelationKind) String() string {
	switch k {
	case RelationDepends:
		return "depends"
	case RelationConflicts:
		return "conflicts"
	case RelationBreaks:
		return "breaks"
	default:
		return "unknown"
	}
}

// Relationship is one declared edge from a mod to another mod id
type Relationship struct {
	Kind        RelationKind
	TargetModID string
	Constraint  string // Empty means any version
}

// ModRecord is one discovered file in a managed folder
type ModRecord struct {
	Path          string // Absolute path on disk
	FileName      string
	ModID         string // From metadata, or derived from the base name
	DisplayName   string
	Version       string // Opaque ordered token; empty when no metadata
	FileHash      string // SHA1 of content, hex
	Fingerprint   uint32 // CurseForge murmur2 fingerprint
	Size          int64
	ModTime       time.Time
	Source        SourceSite
	Loaders       []string
	GameVersions  []string
	GameRange     string // Minecraft version constraint as declared; empty when unknown
	Relationships []Relationship
	State         ModState
	Tags          []TagRef
	HasMetadata   bool  // False when the archive had no recognizable mod metadata
	ParseError    error // Non-nil when the archive could not be read
}

// Name returns the display name, falling back to the mod id
func (r ModRecord) Name() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.ModID
}

// IdentityKey returns the key used to group duplicates: the mod id for records
// with metadata, the content hash otherwise.
func (r ModRecord) IdentityKey() string {
	if r.HasMetadata {
		return r.ModID
	}
	return "hash:" + r.FileHash
}

// RemoteCandidate is the uniform projection of one catalog search result.
// Site tags the variant; Ref is an opaque handle only the owning catalog client interprets.
type RemoteCandidate struct {
	Site         SourceSite
	ModID        string
	Version      string
	GameVersions []string
	Loaders      []string
	DownloadURL  string
	PublishedAt  time.Time
	FileName     string
	Size         int64
	SHA1         string
	Ref          string
}

// UpdateAction replaces one installed file with a remote candidate
type UpdateAction struct {
	ID         string
	Source     ModRecord
	Candidate  RemoteCandidate
	TargetPath string
}
