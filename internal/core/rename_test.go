package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	tokens, err := core.ParsePattern("{modName}-{modVersion} [{tags:type}]")
	require.NoError(t, err)
	assert.Equal(t, []core.Token{
		{Kind: core.TokenModName},
		{Kind: core.TokenLiteral, Text: "-"},
		{Kind: core.TokenModVersion},
		{Kind: core.TokenLiteral, Text: " ["},
		{Kind: core.TokenTagGroup, Category: domain.TagType},
		{Kind: core.TokenLiteral, Text: "]"},
	}, tokens)
}

func TestParsePattern_Errors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"empty", ""},
		{"unclosed", "{modName"},
		{"unknown placeholder", "{author}"},
		{"unknown tag category", "{tags:colour}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.ParsePattern(tt.pattern)
			assert.ErrorIs(t, err, domain.ErrInvalidRename)
		})
	}
}

func TestRender(t *testing.T) {
	tokens := []core.Token{
		{Kind: core.TokenModName},
		{Kind: core.TokenLiteral, Text: "-"},
		{Kind: core.TokenModVersion},
	}

	tests := []struct {
		name   string
		record domain.ModRecord
		want   string
	}{
		{"all fields", domain.ModRecord{DisplayName: "Foo", Version: "1.2"}, "Foo-1.2"},
		{"empty version", domain.ModRecord{DisplayName: "Foo"}, "Foo-"},
		{"empty record", domain.ModRecord{}, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.Render(tokens, tt.record))
		})
	}
}

func TestRender_TagGroup(t *testing.T) {
	tokens, err := core.ParsePattern("{modId}[{tags:functionality}]{tags:translation}")
	require.NoError(t, err)

	rec := domain.ModRecord{
		ModID: "sodium",
		Tags: []domain.TagRef{
			{Category: domain.TagFunctionality, Value: "rendering"},
			{Category: domain.TagType, Value: "client"},
			{Category: domain.TagFunctionality, Value: "performance"},
		},
	}
	assert.Equal(t, "sodium[performance+rendering]", core.Render(tokens, rec))
}

func renameRecord(t *testing.T, dir, fileName string) domain.ModRecord {
	t.Helper()
	path := filepath.Join(dir, fileName)
	require.NoError(t, os.WriteFile(path, []byte(fileName), 0644))
	return domain.ModRecord{Path: path, FileName: fileName}
}

func TestValidateRenames(t *testing.T) {
	dir := t.TempDir()
	a := renameRecord(t, dir, "a.jar")
	b := renameRecord(t, dir, "b.jar.disabled")
	renameRecord(t, dir, "taken.jar")

	tests := []struct {
		name    string
		renames []core.Rename
		wantErr error
	}{
		{"valid", []core.Rename{{Record: a, NewName: "alpha"}, {Record: b, NewName: "beta"}}, nil},
		{"unchanged", []core.Rename{{Record: a, NewName: "a"}}, nil},
		{"swap within batch", []core.Rename{{Record: a, NewName: "b"}, {Record: b, NewName: "a"}}, nil},
		{"empty", []core.Rename{{Record: a, NewName: "  "}}, domain.ErrInvalidRename},
		{"separator", []core.Rename{{Record: a, NewName: "x/y"}}, domain.ErrInvalidRename},
		{"duplicate", []core.Rename{{Record: a, NewName: "same"}, {Record: renameRecord(t, dir, "c.jar"), NewName: "same"}}, domain.ErrInvalidRename},
		{"collision", []core.Rename{{Record: a, NewName: "taken"}}, domain.ErrTargetCollision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateRenames(tt.renames)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRenames_EmptyVersionCollides(t *testing.T) {
	dir := t.TempDir()
	tokens, err := core.ParsePattern("{modName}-{modVersion}")
	require.NoError(t, err)

	one := renameRecord(t, dir, "foo-a.jar")
	one.DisplayName = "Foo"
	two := renameRecord(t, dir, "foo-b.jar")
	two.DisplayName = "Foo"

	err = core.ValidateRenames(core.PlanRenames(tokens, []domain.ModRecord{one, two}))
	assert.ErrorIs(t, err, domain.ErrInvalidRename)
}

func TestApplyRenames(t *testing.T) {
	dir := t.TempDir()
	a := renameRecord(t, dir, "a.jar")
	b := renameRecord(t, dir, "b.jar.disabled")

	out, err := core.ApplyRenames([]core.Rename{{Record: a, NewName: "b"}, {Record: b, NewName: "a"}})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "b.jar", out[0].FileName)
	assert.Equal(t, "a.jar.disabled", out[1].FileName)

	data, err := os.ReadFile(filepath.Join(dir, "b.jar"))
	require.NoError(t, err)
	assert.Equal(t, "a.jar", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "a.jar.disabled"))
	require.NoError(t, err)
	assert.Equal(t, "b.jar.disabled", string(data))

	assert.NoFileExists(t, filepath.Join(dir, "a.jar"))
	assert.NoFileExists(t, filepath.Join(dir, "b.jar.disabled"))
}

func TestApplyRenames_InvalidLeavesFiles(t *testing.T) {
	dir := t.TempDir()
	a := renameRecord(t, dir, "a.jar")

	_, err := core.ApplyRenames([]core.Rename{{Record: a, NewName: ""}})
	require.Error(t, err)
	assert.FileExists(t, a.Path)
}
