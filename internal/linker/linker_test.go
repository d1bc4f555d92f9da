package linker_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/linker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "staging", "mod.jar")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))
	return src
}

func TestMoveLinker_Place(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	dst := filepath.Join(dir, "mods", "mod.jar")

	l := linker.NewMove()
	require.NoError(t, l.Place(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), content)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "staged file should be moved")
}

func TestMoveLinker_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "mods", "mod.jar")

	err := linker.NewMove().Place(filepath.Join(dir, "nope.jar"), dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(dst + ".downloading")
	assert.True(t, os.IsNotExist(statErr), "no partial file may remain")
}

func TestHardlinkLinker_Place(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	dst := filepath.Join(dir, "mods", "mod.jar")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	l := linker.NewHardlink()
	require.NoError(t, l.Place(src, dst))

	srcInfo, err := os.Stat(src)
	require.NoError(t, err)
	dstInfo, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, dstInfo))
}

func TestHardlinkLinker_MissingSourceKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "mods", "mod.jar")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	err := linker.NewHardlink().Place(filepath.Join(dir, "nope.jar"), dst)
	assert.ErrorIs(t, err, domain.ErrIO)

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), content)
	assert.NoFileExists(t, dst+".downloading")
}

func TestCopyLinker_Place(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	dst := filepath.Join(dir, "mods", "mod.jar")

	l := linker.NewCopy()
	require.NoError(t, l.Place(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), content)

	_, err = os.Stat(src)
	assert.NoError(t, err, "copy keeps the staged file")
}

func TestLinker_Remove(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "mod.jar")
	require.NoError(t, os.WriteFile(dst, []byte("x"), 0644))

	l := linker.NewCopy()
	require.NoError(t, l.Remove(dst))
	require.NoError(t, l.Remove(dst), "removing a missing file is not an error")
}

func TestNew_ReturnsCorrectLinker(t *testing.T) {
	tests := []struct {
		method domain.PlacementMethod
	}{
		{domain.PlaceMove},
		{domain.PlaceCopy},
		{domain.PlaceHardlink},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			l := linker.New(tt.method)
			assert.Equal(t, tt.method, l.Method())
		})
	}
}
