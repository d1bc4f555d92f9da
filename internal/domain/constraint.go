package domain

import (
	"strconv"
	"strings"
)

// comparator is one clause of a version constraint
type comparator struct {
	op      string // one of = != > >= < <=
	version string
}

func (c comparator) satisfied(v string) bool {
	cmp := CompareVersions(v, c.version)
	switch c.op {
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case "!=":
		return cmp != 0
	default:
		return cmp == 0
	}
}

// Constraint is a parsed version requirement. The zero value accepts any version.
//
// Accepted forms: "" or "*" (any), a comparator list such as ">=1.2 <2.0",
// "~1.2" and "^1.2" shorthands, wildcard versions such as "1.20.x", and Maven
// ranges like "[1.0,2.0)" or "[40,)". A "||" separates alternatives.
type Constraint struct {
	alternatives [][]comparator
}

// ParseConstraint parses a version constraint. Unrecognized fragments are
// treated as exact versions so a malformed constraint fails closed.
func ParseConstraint(s string) Constraint {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Constraint{}
	}
	var c Constraint
	for _, alt := range strings.Split(s, "||") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if alt[0] == '[' || alt[0] == '(' {
			c.alternatives = append(c.alternatives, parseMavenRanges(alt)...)
			continue
		}
		var clauses []comparator
		for _, field := range strings.Fields(alt) {
			clauses = append(clauses, parseClause(field)...)
		}
		if clauses == nil {
			// "*" inside an alternative accepts anything
			return Constraint{}
		}
		c.alternatives = append(c.alternatives, clauses)
	}
	return c
}

// Satisfied reports whether version v meets the constraint
func (c Constraint) Satisfied(v string) bool {
	if len(c.alternatives) == 0 {
		return true
	}
	for _, alt := range c.alternatives {
		ok := true
		for _, cl := range alt {
			if !cl.satisfied(v) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// IsAny reports whether the constraint accepts every version
func (c Constraint) IsAny() bool {
	return len(c.alternatives) == 0
}

func parseClause(field string) []comparator {
	if field == "*" || field == "x" || field == "X" {
		return nil
	}
	for _, op := range []string{">=", "<=", "!=", ">", "<", "="} {
		if strings.HasPrefix(field, op) {
			return []comparator{{op: op, version: strings.TrimPrefix(field, op)}}
		}
	}
	switch field[0] {
	case '~':
		return bumpRange(field[1:], 2)
	case '^':
		return bumpRange(field[1:], 1)
	}
	if strings.HasSuffix(field, ".x") || strings.HasSuffix(field, ".X") || strings.HasSuffix(field, ".*") {
		base := field[:len(field)-2]
		return bumpRange(base, len(strings.Split(base, ".")))
	}
	return []comparator{{op: "=", version: field}}
}

// bumpRange builds [base, next) where next increments component keep-1 of base
// and drops everything after it. "1.20" keep=2 -> [1.20, 1.21).
func bumpRange(base string, keep int) []comparator {
	core, _ := splitVersion(base)
	if len(core) == 0 {
		return []comparator{{op: "=", version: base}}
	}
	if keep > len(core) {
		keep = len(core)
	}
	if keep < 1 {
		keep = 1
	}
	upper := make([]string, keep)
	for i := 0; i < keep; i++ {
		n := core[i]
		if i == keep-1 {
			n++
		}
		upper[i] = strconv.Itoa(n)
	}
	return []comparator{
		{op: ">=", version: base},
		{op: "<", version: strings.Join(upper, ".")},
	}
}

// parseMavenRanges parses one or more Maven version ranges, e.g. "[1.0,2.0)" or "[1.0,1.1),[1.2,)"
func parseMavenRanges(s string) [][]comparator {
	var out [][]comparator
	for s != "" {
		s = strings.TrimLeft(s, ", ")
		if s == "" {
			break
		}
		if s[0] != '[' && s[0] != '(' {
			// Stray text between ranges, e.g. the "]" in "[1.0,2.0)]"
			frag, rest, _ := strings.Cut(s, ",")
			out = append(out, []comparator{{op: "=", version: frag}})
			s = rest
			continue
		}
		end := strings.IndexAny(s, "])")
		if end < 0 {
			out = append(out, []comparator{{op: "=", version: strings.Trim(s, "[(")}})
			break
		}
		out = append(out, parseMavenRange(s[:end+1]))
		s = s[end+1:]
	}
	return out
}

func parseMavenRange(r string) []comparator {
	if len(r) < 2 {
		return []comparator{{op: "=", version: r}}
	}
	open, closing := r[0], r[len(r)-1]
	body := r[1 : len(r)-1]
	lower, upper, hasComma := strings.Cut(body, ",")
	lower, upper = strings.TrimSpace(lower), strings.TrimSpace(upper)
	if !hasComma {
		// [1.0] pins an exact version
		return []comparator{{op: "=", version: lower}}
	}
	var clauses []comparator
	if lower != "" {
		op := ">="
		if open == '(' {
			op = ">"
		}
		clauses = append(clauses, comparator{op: op, version: lower})
	}
	if upper != "" {
		op := "<="
		if closing == ')' {
			op = "<"
		}
		clauses = append(clauses, comparator{op: op, version: upper})
	}
	if clauses == nil {
		clauses = []comparator{{op: ">=", version: "0"}}
	}
	return clauses
}
