package core

import (
	"sort"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// DuplicateGroup is a set of Active records sharing one identity.
// Keep is the proposed survivor; Demote are proposed for demotion to Old.
type DuplicateGroup struct {
	Key    string // IdentityKey shared by the group
	ModID  string
	Keep   domain.ModRecord
	Demote []domain.ModRecord
}

// DuplicateReport lists every duplicate group, ordered by key
type DuplicateReport struct {
	Groups []DuplicateGroup
}

// Demotions returns every record proposed for demotion
func (r DuplicateReport) Demotions() []domain.ModRecord {
	var out []domain.ModRecord
	for _, g := range r.Groups {
		out = append(out, g.Demote...)
	}
	return out
}

// ByMod indexes the groups by mod id
func (r DuplicateReport) ByMod() map[string]DuplicateGroup {
	out := make(map[string]DuplicateGroup, len(r.Groups))
	for _, g := range r.Groups {
		out[g.ModID] = g
	}
	return out
}

// RelationIssue is one declared relationship that does not hold.
// For unresolved dependencies Matched holds installed records of the target
// whose version failed the constraint (empty when the target is absent); for
// conflicts and breaks it holds the offending records.
type RelationIssue struct {
	From         domain.ModRecord
	Relationship domain.Relationship
	Matched      []domain.ModRecord
}

// RelationshipReport collects relationship problems among active records
type RelationshipReport struct {
	UnresolvedDepends []RelationIssue
	Conflicts         []RelationIssue
	Breaks            []RelationIssue
}

// Empty reports whether no problems were found
func (r RelationshipReport) Empty() bool {
	return len(r.UnresolvedDepends) == 0 && len(r.Conflicts) == 0 && len(r.Breaks) == 0
}

// ByMod groups every issue by the mod id that declared it
func (r RelationshipReport) ByMod() map[string][]RelationIssue {
	out := make(map[string][]RelationIssue)
	for _, list := range [][]RelationIssue{r.UnresolvedDepends, r.Conflicts, r.Breaks} {
		for _, issue := range list {
			out[issue.From.ModID] = append(out[issue.From.ModID], issue)
		}
	}
	return out
}

// Resolver detects duplicate files and broken relationships. It only
// proposes changes; applying demotions is a separate step.
type Resolver struct{}

// NewResolver creates a new resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve runs duplicate detection, then relationship checks over the set
// that would remain after the proposed demotions
func (r *Resolver) Resolve(records []domain.ModRecord) (DuplicateReport, RelationshipReport) {
	dupes := r.Duplicates(records)
	return dupes, r.Relationships(records, dupes)
}

// Duplicates groups Active records by identity and ranks each group:
// highest version first, then most recently modified, then lowest hash.
func (r *Resolver) Duplicates(records []domain.ModRecord) DuplicateReport {
	groups := make(map[string][]domain.ModRecord)
	for _, rec := range records {
		if rec.State != domain.StateActive {
			continue
		}
		key := rec.IdentityKey()
		groups[key] = append(groups[key], rec)
	}

	var report DuplicateReport
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return outranks(members[i], members[j])
		})
		report.Groups = append(report.Groups, DuplicateGroup{
			Key:    key,
			ModID:  members[0].ModID,
			Keep:   members[0],
			Demote: members[1:],
		})
	}

	sort.Slice(report.Groups, func(i, j int) bool { return report.Groups[i].Key < report.Groups[j].Key })
	return report
}

// outranks reports whether a should be kept over b
func outranks(a, b domain.ModRecord) bool {
	if c := domain.CompareVersions(a.Version, b.Version); c != 0 {
		return c > 0
	}
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.FileHash < b.FileHash
}

// Relationships evaluates every declared relationship of the Active records
// not proposed for demotion. Cycles are not detected; each edge is checked
// on its own.
func (r *Resolver) Relationships(records []domain.ModRecord, dupes DuplicateReport) RelationshipReport {
	demoted := make(map[string]bool)
	for _, d := range dupes.Demotions() {
		demoted[d.Path] = true
	}

	var active []domain.ModRecord
	byID := make(map[string][]domain.ModRecord)
	for _, rec := range records {
		if rec.State != domain.StateActive || demoted[rec.Path] {
			continue
		}
		active = append(active, rec)
		byID[rec.ModID] = append(byID[rec.ModID], rec)
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].ModID != active[j].ModID {
			return active[i].ModID < active[j].ModID
		}
		return active[i].Path < active[j].Path
	})

	var report RelationshipReport
	for _, rec := range active {
		for _, rel := range rec.Relationships {
			constraint := domain.ParseConstraint(rel.Constraint)
			targets := byID[rel.TargetModID]

			switch rel.Kind {
			case domain.RelationDepends:
				if rel.TargetModID == rec.ModID || anySatisfies(targets, constraint) {
					continue
				}
				report.UnresolvedDepends = append(report.UnresolvedDepends, RelationIssue{
					From: rec, Relationship: rel, Matched: targets,
				})

			case domain.RelationConflicts, domain.RelationBreaks:
				var matched []domain.ModRecord
				for _, t := range targets {
					if t.Path == rec.Path {
						continue
					}
					if constraint.Satisfied(t.Version) {
						matched = append(matched, t)
					}
				}
				if len(matched) == 0 {
					continue
				}
				issue := RelationIssue{From: rec, Relationship: rel, Matched: matched}
				if rel.Kind == domain.RelationBreaks {
					report.Breaks = append(report.Breaks, issue)
				} else {
					report.Conflicts = append(report.Conflicts, issue)
				}
			}
		}
	}
	return report
}

func anySatisfies(records []domain.ModRecord, c domain.Constraint) bool {
	for _, rec := range records {
		if c.Satisfied(rec.Version) {
			return true
		}
	}
	return false
}
