package domain

import "strings"

// MatchPolicy controls which remote candidates may replace an installed file
type MatchPolicy struct {
	GameVersionRule GameVersionRule
	// GameVersions is used when an installed record declares none (the folder's target game version)
	GameVersions []string
	Ignores      []Ignore
}

// Ignore marks updates the user chose to skip. An empty Version skips every
// version of the mod offered by Site.
type Ignore struct {
	ModID   string
	Site    SourceSite
	Version string
}

// IsIgnored reports whether version of modID offered by site was marked as ignored
func (p MatchPolicy) IsIgnored(modID string, site SourceSite, version string) bool {
	for _, ig := range p.Ignores {
		if ig.ModID == modID && ig.Site == site && (ig.Version == "" || ig.Version == version) {
			return true
		}
	}
	return false
}

// RetentionPolicy determines what happens to a superseded file after a successful update
type RetentionPolicy int

const (
	RetainUntilConfirm RetentionPolicy = iota // Default: keep as .old until purged
	RetainDelete                              // Delete the old file once the new one is written
	RetainForever                             // Keep as .old, never purged automatically
)

func (p RetentionPolicy) String() string {
	switch p {
	case RetainUntilConfirm:
		return "keep"
	case RetainDelete:
		return "delete"
	case RetainForever:
		return "nothing"
	default:
		return "unknown"
	}
}

// ParseRetentionPolicy converts a string to RetentionPolicy
func ParseRetentionPolicy(s string) (RetentionPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep", "keep_until_confirm", "":
		return RetainUntilConfirm, true
	case "delete", "delete_immediately":
		return RetainDelete, true
	case "nothing", "do_nothing", "forever":
		return RetainForever, true
	default:
		return RetainUntilConfirm, false
	}
}

// SourceSelector is the ordered list of catalogs consulted for updates
type SourceSelector struct {
	Sites []SourceSite
}

// Includes reports whether site is selected
func (s SourceSelector) Includes(site SourceSite) bool {
	for _, x := range s.Sites {
		if x == site {
			return true
		}
	}
	return false
}

// Order returns the sites to query for a record from site: its own site first
// when selected, then the remaining sites in configured order.
func (s SourceSelector) Order(site SourceSite) []SourceSite {
	out := make([]SourceSite, 0, len(s.Sites))
	if site != SiteLocal && s.Includes(site) {
		out = append(out, site)
	}
	for _, x := range s.Sites {
		if x != site || site == SiteLocal {
			out = append(out, x)
		}
	}
	return out
}

// PlacementMethod determines how a verified download is put into the managed folder
type PlacementMethod int

const (
	PlaceMove     PlacementMethod = iota // Default: rename, copying across filesystems
	PlaceCopy                            // Copy and keep the staged file until cleanup
	PlaceHardlink                        // Hard link the staged file
)

func (m PlacementMethod) String() string {
	switch m {
	case PlaceMove:
		return "move"
	case PlaceCopy:
		return "copy"
	case PlaceHardlink:
		return "hardlink"
	default:
		return "unknown"
	}
}

// ParsePlacementMethod converts a string to PlacementMethod
func ParsePlacementMethod(s string) (PlacementMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "move", "":
		return PlaceMove, true
	case "copy":
		return PlaceCopy, true
	case "hardlink":
		return PlaceHardlink, true
	default:
		return PlaceMove, false
	}
}
