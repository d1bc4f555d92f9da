package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// TokenKind identifies what a rename token renders
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenModID
	TokenModName
	TokenModVersion
	TokenTagGroup
)

// Token is one element of a rename template
type Token struct {
	Kind     TokenKind
	Text     string             // TokenLiteral only
	Category domain.TagCategory // TokenTagGroup only
}

// tagDelimiter joins the values of a tag group
const tagDelimiter = "+"

// ParsePattern parses a template such as "{modName}-{modVersion}[{tags:type}]".
// Placeholders are {modId}, {modName}, {modVersion} and {tags:<category>};
// everything else is literal text.
func ParsePattern(pattern string) ([]Token, error) {
	var tokens []Token
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenLiteral, Text: literal.String()})
			literal.Reset()
		}
	}

	rest := pattern
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			literal.WriteString(rest)
			break
		}
		literal.WriteString(rest[:open])
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w: unclosed placeholder in %q", domain.ErrInvalidRename, pattern)
		}
		tok, err := parsePlaceholder(rest[open+1 : open+end])
		if err != nil {
			return nil, err
		}
		flush()
		tokens = append(tokens, tok)
		rest = rest[open+end+1:]
	}
	flush()

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty pattern", domain.ErrInvalidRename)
	}
	return tokens, nil
}

func parsePlaceholder(name string) (Token, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "modid":
		return Token{Kind: TokenModID}, nil
	case "modname":
		return Token{Kind: TokenModName}, nil
	case "modversion":
		return Token{Kind: TokenModVersion}, nil
	}
	if key, cat, ok := strings.Cut(name, ":"); ok && strings.EqualFold(strings.TrimSpace(key), "tags") {
		category, ok := domain.ParseTagCategory(cat)
		if !ok {
			return Token{}, fmt.Errorf("%w: unknown tag category %q", domain.ErrInvalidRename, cat)
		}
		return Token{Kind: TokenTagGroup, Category: category}, nil
	}
	return Token{}, fmt.Errorf("%w: unknown placeholder {%s}", domain.ErrInvalidRename, name)
}

// Render produces the base file name (without suffix) for record.
// Missing fields render as empty strings.
func Render(tokens []Token, record domain.ModRecord) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenLiteral:
			b.WriteString(tok.Text)
		case TokenModID:
			b.WriteString(record.ModID)
		case TokenModName:
			b.WriteString(record.DisplayName)
		case TokenModVersion:
			b.WriteString(record.Version)
		case TokenTagGroup:
			b.WriteString(tagGroup(record.Tags, tok.Category))
		}
	}
	return b.String()
}

func tagGroup(tags []domain.TagRef, category domain.TagCategory) string {
	var values []string
	for _, t := range tags {
		if t.Category == category {
			values = append(values, t.Value)
		}
	}
	slices.Sort(values)
	return strings.Join(values, tagDelimiter)
}

// Rename is one planned file rename. NewName excludes the suffix chain,
// which is carried over from the current file name.
type Rename struct {
	Record  domain.ModRecord
	NewName string
}

// FileName returns the new file name including the preserved suffix
func (r Rename) FileName() string {
	_, suffix := domain.SplitFileName(r.Record.FileName)
	return r.NewName + suffix
}

// Path returns the new full path
func (r Rename) Path() string {
	return filepath.Join(filepath.Dir(r.Record.Path), r.FileName())
}

// PlanRenames renders tokens for every record
func PlanRenames(tokens []Token, records []domain.ModRecord) []Rename {
	renames := make([]Rename, len(records))
	for i, rec := range records {
		renames[i] = Rename{Record: rec, NewName: Render(tokens, rec)}
	}
	return renames
}

// ValidateRenames rejects a batch containing empty names, names with path
// separators, duplicate targets, or targets that collide with a file outside
// the batch. All problems are reported together.
func ValidateRenames(renames []Rename) error {
	sources := make(map[string]bool, len(renames))
	for _, r := range renames {
		sources[r.Record.Path] = true
	}

	var errs []error
	targets := make(map[string]string, len(renames))
	for _, r := range renames {
		name := strings.TrimSpace(r.NewName)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("%w: %s renders to an empty name", domain.ErrInvalidRename, r.Record.FileName))
			continue
		case strings.ContainsAny(r.NewName, `/\`) || name == "." || name == "..":
			errs = append(errs, fmt.Errorf("%w: %q is not a valid file name", domain.ErrInvalidRename, r.NewName))
			continue
		}

		target := r.Path()
		if prev, ok := targets[target]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s both render to %s", domain.ErrInvalidRename, prev, r.Record.FileName, r.FileName()))
			continue
		}
		targets[target] = r.Record.FileName

		if target == r.Record.Path || sources[target] {
			continue
		}
		if _, err := os.Lstat(target); err == nil {
			errs = append(errs, fmt.Errorf("%w: %s already exists", domain.ErrTargetCollision, r.FileName()))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

const renamingSuffix = ".renaming"

// ApplyRenames validates and performs a batch of renames, returning the
// updated records. Files are first moved to temporary names so renames within
// the batch may swap names. On failure, completed renames are rolled back.
func ApplyRenames(renames []Rename) ([]domain.ModRecord, error) {
	if err := ValidateRenames(renames); err != nil {
		return nil, err
	}

	var pending []Rename
	for _, r := range renames {
		if r.Path() != r.Record.Path {
			pending = append(pending, r)
		}
	}

	// Phase 1: move aside
	for i, r := range pending {
		if err := os.Rename(r.Record.Path, r.Record.Path+renamingSuffix); err != nil {
			rollback(pending[:i], false)
			return nil, fmt.Errorf("%w: renaming %s: %w", domain.ErrIO, r.Record.FileName, err)
		}
	}
	// Phase 2: move into place
	for i, r := range pending {
		if err := os.Rename(r.Record.Path+renamingSuffix, r.Path()); err != nil {
			rollback(pending[:i], true)
			rollback(pending[i:], false)
			return nil, fmt.Errorf("%w: renaming %s: %w", domain.ErrIO, r.Record.FileName, err)
		}
	}

	out := make([]domain.ModRecord, len(renames))
	for i, r := range renames {
		rec := r.Record
		rec.Path = r.Path()
		rec.FileName = r.FileName()
		out[i] = rec
	}
	return out, nil
}

// rollback restores original names; placed reports whether the files already
// reached their final names
func rollback(renames []Rename, placed bool) {
	for _, r := range renames {
		from := r.Record.Path + renamingSuffix
		if placed {
			from = r.Path()
		}
		_ = os.Rename(from, r.Record.Path)
	}
}
