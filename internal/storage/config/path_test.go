package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFolderPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		setup   func(t *testing.T) string // returns path to use
		wantErr string
	}{
		{
			name: "existing directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
		{
			name: "uncleaned directory",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.Mkdir(filepath.Join(dir, "mods"), 0755))
				return dir + "/x/../mods/"
			},
		},
		{
			name:    "empty path",
			path:    "  ",
			wantErr: "folder path cannot be empty",
		},
		{
			name:    "relative path",
			path:    "mods",
			wantErr: "folder path must be absolute",
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope")
			},
			wantErr: "does not exist",
		},
		{
			name: "file instead of directory",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "mod.jar")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				return path
			},
			wantErr: "is a file, not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if tt.setup != nil {
				path = tt.setup(t)
			}

			got, err := ParseFolderPath(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidFolder)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.Clean(path), got)
		})
	}
}

func TestParseFolderPath_Home(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.Mkdir(filepath.Join(home, "mods"), 0755))

	got, err := ParseFolderPath("~/mods")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "mods"), got)
}
