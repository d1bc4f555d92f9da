package core

import (
	"iter"
	"slices"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// Matcher selects the best compatible remote candidate for an installed file
type Matcher struct{}

// NewMatcher creates a new matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match returns the newest compatible candidate, or false when there is none
// or the best one is the version already installed.
//
// A candidate is compatible when it shares a loader with the installed file
// (skipped if either side declares none, or the file declares "any") and a
// game version under the policy's rule. See targetGameVersions for which game
// versions the candidate is checked against.
func (m *Matcher) Match(installed domain.ModRecord, candidates iter.Seq[domain.RemoteCandidate], policy domain.MatchPolicy) (domain.RemoteCandidate, bool) {
	gameVersions := targetGameVersions(installed, policy)
	checkLoaders := len(installed.Loaders) > 0 && !containsFold(installed.Loaders, "any")

	var best domain.RemoteCandidate
	found := false
	for c := range candidates {
		if policy.IsIgnored(installed.ModID, c.Site, c.Version) {
			continue
		}
		if checkLoaders && !loadersIntersect(installed.Loaders, c.Loaders) {
			continue
		}
		if len(gameVersions) > 0 && !domain.GameVersionsIntersect(gameVersions, c.GameVersions, policy.GameVersionRule) {
			continue
		}
		if !found || newerCandidate(c, best) {
			best, found = c, true
		}
	}

	if !found || best.Version == installed.Version {
		return domain.RemoteCandidate{}, false
	}
	// Same bytes republished under another version string
	if best.SHA1 != "" && strings.EqualFold(best.SHA1, installed.FileHash) {
		return domain.RemoteCandidate{}, false
	}
	return best, true
}

// targetGameVersions picks the game versions a candidate must support.
// The folder's versions win when the file declares none, or when its declared
// range accepts one of them; otherwise the file's own versions are used.
// Empty means the check is skipped.
func targetGameVersions(installed domain.ModRecord, policy domain.MatchPolicy) []string {
	if len(policy.GameVersions) == 0 {
		return installed.GameVersions
	}
	if len(installed.GameVersions) == 0 && installed.GameRange == "" {
		return policy.GameVersions
	}
	if installed.GameRange != "" {
		accepts := domain.ParseConstraint(installed.GameRange)
		if slices.ContainsFunc(policy.GameVersions, accepts.Satisfied) {
			return policy.GameVersions
		}
	}
	if len(installed.GameVersions) == 0 {
		return policy.GameVersions
	}
	return installed.GameVersions
}

// newerCandidate orders by publish time, then by the lexically greater version
func newerCandidate(a, b domain.RemoteCandidate) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return strings.Compare(a.Version, b.Version) > 0
}

// loadersIntersect treats a candidate that names no loader as fitting any
func loadersIntersect(installed, offered []string) bool {
	if len(offered) == 0 {
		return true
	}
	for _, l := range offered {
		if containsFold(installed, l) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
