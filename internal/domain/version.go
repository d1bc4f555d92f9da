package domain

import (
	"strconv"
	"strings"
)

// splitVersion separates a version into its numeric dotted core and the
// remaining qualifier. "v1.2.3-beta+build" -> ([1 2 3], "beta+build").
func splitVersion(v string) ([]int, string) {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")

	var core []int
	rest := v
	for rest != "" {
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end == 0 {
			break
		}
		n, err := strconv.Atoi(rest[:end])
		if err != nil {
			break
		}
		core = append(core, n)
		rest = rest[end:]
		if len(rest) > 1 && rest[0] == '.' && rest[1] >= '0' && rest[1] <= '9' {
			rest = rest[1:]
			continue
		}
		break
	}
	rest = strings.TrimLeft(rest, "-+._")
	return core, rest
}

// CompareVersions compares two opaque version tokens.
// Returns -1 if v1 < v2, 0 if equal, 1 if v1 > v2.
//
// Leading numeric components are compared numerically (missing components
// count as zero, so "1.0" == "1.0.0"). When the numeric cores are equal, a
// version without a qualifier sorts after one with a qualifier ("1.0" > "1.0-beta"),
// and two qualifiers compare lexically. Versions with no numeric core at all
// fall back to a plain lexical comparison.
func CompareVersions(v1, v2 string) int {
	c1, q1 := splitVersion(v1)
	c2, q2 := splitVersion(v2)

	if len(c1) == 0 || len(c2) == 0 {
		if len(c1) == 0 && len(c2) == 0 {
			return strings.Compare(strings.TrimSpace(v1), strings.TrimSpace(v2))
		}
		// A numeric version always outranks a purely textual one
		if len(c1) == 0 {
			return -1
		}
		return 1
	}

	maxLen := len(c1)
	if len(c2) > maxLen {
		maxLen = len(c2)
	}
	for i := 0; i < maxLen; i++ {
		var n1, n2 int
		if i < len(c1) {
			n1 = c1[i]
		}
		if i < len(c2) {
			n2 = c2[i]
		}
		if n1 < n2 {
			return -1
		}
		if n1 > n2 {
			return 1
		}
	}

	switch {
	case q1 == q2:
		return 0
	case q1 == "":
		return 1
	case q2 == "":
		return -1
	default:
		return strings.Compare(q1, q2)
	}
}

// IsNewerVersion returns true if newVersion is greater than currentVersion
func IsNewerVersion(currentVersion, newVersion string) bool {
	return CompareVersions(currentVersion, newVersion) < 0
}

// GameVersionRule sets how strictly game versions must agree
type GameVersionRule int

const (
	MatchMinor GameVersionRule = iota // Default: major.minor must be equal
	MatchMajor                        // Only the major component must be equal
	MatchExact                        // The full version must be equal
)

func (r GameVersionRule) String() string {
	switch r {
	case MatchMinor:
		return "minor"
	case MatchMajor:
		return "major"
	case MatchExact:
		return "exact"
	default:
		return "unknown"
	}
}

// ParseGameVersionRule converts a string to GameVersionRule
func ParseGameVersionRule(s string) (GameVersionRule, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor", "":
		return MatchMinor, true
	case "major":
		return MatchMajor, true
	case "exact":
		return MatchExact, true
	default:
		return MatchMinor, false
	}
}

// GameVersionKey reduces a game version to the part compared under rule.
// Returns "" when the version has no numeric core.
func GameVersionKey(v string, rule GameVersionRule) string {
	core, qualifier := splitVersion(v)
	if len(core) == 0 {
		return ""
	}
	parts := make([]string, 0, len(core))
	for _, n := range core {
		parts = append(parts, strconv.Itoa(n))
	}
	switch rule {
	case MatchMajor:
		return parts[0]
	case MatchExact:
		for len(parts) > 2 && parts[len(parts)-1] == "0" {
			parts = parts[:len(parts)-1]
		}
		if qualifier != "" {
			return strings.Join(parts, ".") + "-" + qualifier
		}
		return strings.Join(parts, ".")
	default:
		if len(parts) == 1 {
			return parts[0] + ".0"
		}
		return parts[0] + "." + parts[1]
	}
}

// GameVersionsIntersect reports whether any version in a matches any version in b under rule
func GameVersionsIntersect(a, b []string, rule GameVersionRule) bool {
	keys := make(map[string]bool, len(a))
	for _, v := range a {
		if k := GameVersionKey(v, rule); k != "" {
			keys[k] = true
		}
	}
	for _, v := range b {
		if k := GameVersionKey(v, rule); k != "" && keys[k] {
			return true
		}
	}
	return false
}
