package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/storage/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Stage(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir)

	path, err := c.Stage("upd-1", "../sodium.jar")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "upd-1", "sodium.jar"), path)
	assert.True(t, c.Exists("upd-1"))
}

func TestCache_Release(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir)

	path, err := c.Stage("upd-1", "sodium.jar")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("jar"), 0644))

	require.NoError(t, c.Release("upd-1"))
	assert.False(t, c.Exists("upd-1"))
	require.NoError(t, c.Release("upd-1"), "releasing twice is harmless")
}

func TestCache_ListAndClean(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir)

	for _, id := range []string{"upd-a", "upd-b"} {
		path, err := c.Stage(id, "x.jar")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))
	}

	ids, err := c.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"upd-a", "upd-b"}, ids)

	size, err := c.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	require.NoError(t, c.Clean())
	ids, err = c.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCache_MissingRoot(t *testing.T) {
	c := cache.New(filepath.Join(t.TempDir(), "missing"))

	ids, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, ids)

	size, err := c.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}
