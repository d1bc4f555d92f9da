package core_test

import (
	"path/filepath"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetEnabled(t *testing.T) {
	dir := t.TempDir()
	rec := renameRecord(t, dir, "sodium-0.5.jar")
	rec.State = domain.StateActive

	disabled, err := core.SetEnabled(rec, false)
	require.NoError(t, err)
	assert.Equal(t, "sodium-0.5.jar.disabled", disabled.FileName)
	assert.Equal(t, domain.StateDisabled, disabled.State)
	assert.FileExists(t, disabled.Path)
	assert.NoFileExists(t, rec.Path)

	enabled, err := core.SetEnabled(disabled, true)
	require.NoError(t, err)
	assert.Equal(t, rec.Path, enabled.Path)
	assert.Equal(t, domain.StateActive, enabled.State)

	again, err := core.SetEnabled(enabled, true)
	require.NoError(t, err)
	assert.Equal(t, enabled.Path, again.Path)
}

func TestSetState_Collision(t *testing.T) {
	dir := t.TempDir()
	rec := renameRecord(t, dir, "jei.jar")
	renameRecord(t, dir, "jei.jar.disabled")

	_, err := core.SetEnabled(rec, false)
	assert.ErrorIs(t, err, domain.ErrTargetCollision)
	assert.FileExists(t, rec.Path)
}

func TestCommitDemotions(t *testing.T) {
	dir := t.TempDir()
	keep := renameRecord(t, dir, "a-1.1.jar")
	old := renameRecord(t, dir, "a-1.0.jar")

	demoted, err := core.CommitDemotions([]core.DuplicateGroup{{Key: "a", ModID: "a", Keep: keep, Demote: []domain.ModRecord{old}}})
	require.NoError(t, err)
	require.Len(t, demoted, 1)
	assert.Equal(t, domain.StateOld, demoted[0].State)
	assert.FileExists(t, filepath.Join(dir, "a-1.0.jar.old"))
	assert.FileExists(t, keep.Path)
}

func TestCommitDemotions_ContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	missing := domain.ModRecord{Path: filepath.Join(dir, "gone.jar"), FileName: "gone.jar"}
	present := renameRecord(t, dir, "b-1.0.jar")

	demoted, err := core.CommitDemotions([]core.DuplicateGroup{{Demote: []domain.ModRecord{missing, present}}})
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.Len(t, demoted, 1)
}

func TestPurgeFiles(t *testing.T) {
	dir := t.TempDir()
	old := renameRecord(t, dir, "a-1.0.jar.old")
	active := renameRecord(t, dir, "b.jar")
	gone := filepath.Join(dir, "c.jar.old")

	purged, err := core.PurgeFiles([]string{old.Path, active.Path, gone})
	assert.Error(t, err)
	assert.Equal(t, []string{old.Path, gone}, purged)
	assert.NoFileExists(t, old.Path)
	assert.FileExists(t, active.Path)
}

func TestOldFiles(t *testing.T) {
	records := []domain.ModRecord{
		{Path: "/m/a.jar", State: domain.StateActive},
		{Path: "/m/a.jar.old", State: domain.StateOld},
		{Path: "/m/b.jar.disabled", State: domain.StateDisabled},
	}
	assert.Equal(t, []string{"/m/a.jar.old"}, core.OldFiles(records))
}
