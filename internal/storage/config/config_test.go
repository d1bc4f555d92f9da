package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/storage/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, domain.MatchMinor, opts.GameVersionRule)
	assert.Equal(t, domain.RetainUntilConfirm, opts.Retention)
	assert.Equal(t, domain.PlaceMove, opts.Placement)
	assert.Equal(t, 8, opts.MaxParallel)
	assert.Equal(t, 8, opts.ThreadsPerDownload)
	assert.Equal(t, 4, opts.MaxPerHost)
	assert.Equal(t, []domain.SourceSite{domain.SiteCurseforge, domain.SiteModrinth}, opts.Sources.Sites)
	assert.Empty(t, cfg.Folders)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
version_match: exact
post_update: delete
max_parallel: 2
threads_per_download: 0
placement: hardlink
sources: [modrinth]
show_tag_categories: [type, translation]
folders:
  - name: survival
    path: /games/mc/mods
    game_version: 1.20.1
    loader: fabric
`
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, domain.MatchExact, opts.GameVersionRule)
	assert.Equal(t, domain.RetainDelete, opts.Retention)
	assert.Equal(t, domain.PlaceHardlink, opts.Placement)
	assert.Equal(t, 2, opts.MaxParallel)
	assert.Equal(t, config.DefaultThreadsPerDownload, opts.ThreadsPerDownload, "non-positive falls back to default")
	assert.Equal(t, []domain.SourceSite{domain.SiteModrinth}, opts.Sources.Sites)
	assert.Equal(t, []domain.TagCategory{domain.TagType, domain.TagTranslation}, opts.ShowTagCategories)

	folder, err := cfg.Folder("survival")
	require.NoError(t, err)
	assert.Equal(t, "/games/mc/mods", folder.Path)
	assert.Equal(t, "1.20.1", folder.GameVersion)
	assert.Equal(t, "fabric", folder.Loader)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "folders: [", "parsing config"},
		{"bad version rule", "version_match: fuzzy", "version_match"},
		{"bad retention", "post_update: archive", "post_update"},
		{"bad placement", "placement: symlink", "placement"},
		{"local source", "sources: [local]", "sources"},
		{"unknown category", "show_tag_categories: [colour]", "show_tag_categories"},
		{"folder without path", "folders: [{name: a}]", "folders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.content), 0644))

			_, err := config.Load(dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	cfg.VersionMatch = "major"
	cfg.SetFolder(domain.Folder{Name: "pack", Path: "/srv/mods", GameVersion: "1.21"})
	require.NoError(t, cfg.Save(dir))

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "major", loaded.VersionMatch)
	require.Len(t, loaded.Folders, 1)
	assert.Equal(t, "pack", loaded.Folders[0].Name)
	assert.Equal(t, []string{"curseforge", "modrinth"}, loaded.Sources)
}
