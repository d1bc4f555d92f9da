package core_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func plannerFixture(t *testing.T, catalogs ...*fakeCatalog) *core.Planner {
	t.Helper()
	registry := source.NewRegistry()
	for _, c := range catalogs {
		registry.Register(c)
	}
	return core.NewPlanner(registry, core.NewMatcher(), zaptest.NewLogger(t))
}

func installed(dir, modID, version string) domain.ModRecord {
	return domain.ModRecord{
		Path:         filepath.Join(dir, modID+"-"+version+".jar"),
		FileName:     modID + "-" + version + ".jar",
		ModID:        modID,
		Version:      version,
		Loaders:      []string{"fabric"},
		GameVersions: []string{"1.20.1"},
		HasMetadata:  true,
		State:        domain.StateActive,
	}
}

func remote(modID, version string, day int) domain.RemoteCandidate {
	return domain.RemoteCandidate{
		ModID:        modID,
		Version:      version,
		Loaders:      []string{"fabric"},
		GameVersions: []string{"1.20.1"},
		PublishedAt:  epoch.AddDate(0, 0, day),
		FileName:     modID + "-" + version + ".jar",
		DownloadURL:  "https://cdn.example/" + modID + "-" + version + ".jar",
	}
}

var bothSites = domain.SourceSelector{Sites: []domain.SourceSite{domain.SiteCurseforge, domain.SiteModrinth}}

func TestPlanner_Plan(t *testing.T) {
	dir := t.TempDir()
	cf := newFakeCatalog(domain.SiteCurseforge)
	cf.add(remote("sodium", "0.5.3", 3))
	cf.add(remote("sodium", "0.5.2", 2))
	cf.add(remote("lithium", "0.11", 1))

	sodium := installed(dir, "sodium", "0.5.1")
	lithium := installed(dir, "lithium", "0.11") // up to date
	disabled := installed(dir, "iris", "1.0")
	disabled.State = domain.StateDisabled

	plan, err := plannerFixture(t, cf).Plan(context.Background(), []domain.ModRecord{sodium, lithium, disabled}, domain.MatchPolicy{}, bothSites)
	require.NoError(t, err)
	require.NoError(t, plan.Err())

	assert.Equal(t, 2, plan.Checked, "disabled records are skipped")
	require.Len(t, plan.Actions, 1)

	action := plan.Actions[0]
	assert.True(t, strings.HasPrefix(action.ID, "upd-"))
	assert.Equal(t, sodium.Path, action.Source.Path)
	assert.Equal(t, "0.5.3", action.Candidate.Version)
	assert.Equal(t, filepath.Join(dir, "sodium-0.5.3.jar"), action.TargetPath)
}

func TestPlanner_Plan_OwnSiteFirst(t *testing.T) {
	dir := t.TempDir()
	cf := newFakeCatalog(domain.SiteCurseforge)
	cf.add(remote("sodium", "0.5.3", 3))
	mr := newFakeCatalog(domain.SiteModrinth)
	mr.add(remote("sodium", "0.5.2", 2))

	rec := installed(dir, "sodium", "0.5.1")
	rec.Source = domain.SiteModrinth

	plan, err := plannerFixture(t, cf, mr).Plan(context.Background(), []domain.ModRecord{rec}, domain.MatchPolicy{}, bothSites)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, domain.SiteModrinth, plan.Actions[0].Candidate.Site)
	assert.Equal(t, int32(0), cf.searches.Load(), "first matching site wins")
}

func TestPlanner_Plan_QueryFailureFallsThrough(t *testing.T) {
	dir := t.TempDir()
	cf := newFakeCatalog(domain.SiteCurseforge)
	cf.errs["sodium"] = errors.New("boom")
	mr := newFakeCatalog(domain.SiteModrinth)
	mr.add(remote("sodium", "0.5.3", 3))
	mr.errs["lithium"] = errors.New("down")

	recs := []domain.ModRecord{installed(dir, "sodium", "0.5.1"), installed(dir, "lithium", "0.10")}

	plan, err := plannerFixture(t, cf, mr).Plan(context.Background(), recs, domain.MatchPolicy{}, bothSites)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, domain.SiteModrinth, plan.Actions[0].Candidate.Site)

	require.Len(t, plan.Issues, 2)
	assert.Equal(t, domain.SiteCurseforge, plan.Issues[0].Site)
	for _, is := range plan.Issues {
		assert.ErrorIs(t, is.Err, domain.ErrVersionQuery)
	}
	assert.ErrorIs(t, plan.Err(), domain.ErrVersionQuery)
}

func TestPlanner_Plan_UnregisteredSiteSkipped(t *testing.T) {
	dir := t.TempDir()
	mr := newFakeCatalog(domain.SiteModrinth)
	mr.add(remote("sodium", "0.5.3", 3))

	plan, err := plannerFixture(t, mr).Plan(context.Background(), []domain.ModRecord{installed(dir, "sodium", "0.5.1")}, domain.MatchPolicy{}, bothSites)
	require.NoError(t, err)
	assert.Len(t, plan.Actions, 1)
	assert.Empty(t, plan.Issues)
}

func TestPlanner_Plan_TargetCollision(t *testing.T) {
	dir := t.TempDir()
	cf := newFakeCatalog(domain.SiteCurseforge)
	shared := remote("sodium", "0.5.3", 3)
	cf.add(shared)
	// A second identity resolving to the same file name
	other := shared
	other.ModID = "sodium-extra"
	cf.add(other)
	occupied := remote("lithium", "0.12", 3)
	cf.add(occupied)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lithium-0.12.jar"), []byte("x"), 0644))

	recs := []domain.ModRecord{
		installed(dir, "sodium", "0.5.1"),
		installed(dir, "sodium-extra", "0.5.0"),
		installed(dir, "lithium", "0.11"),
	}

	plan, err := plannerFixture(t, cf).Plan(context.Background(), recs, domain.MatchPolicy{}, bothSites)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "sodium", plan.Actions[0].Source.ModID)
	require.Len(t, plan.Issues, 2)
	assert.ErrorIs(t, plan.Issues[0].Err, domain.ErrTargetCollision)
	assert.ErrorIs(t, plan.Issues[1].Err, domain.ErrTargetCollision)
}

func TestPlanner_Plan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := plannerFixture(t).Plan(ctx, []domain.ModRecord{installed(t.TempDir(), "a", "1")}, domain.MatchPolicy{}, bothSites)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, plan.Actions)
}
