package core_test

import (
	"archive/zip"
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/source"

	"github.com/stretchr/testify/require"
)

// writeJar creates a jar in dir containing the given entries
func writeJar(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[n]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

// fabricJar writes a jar with a minimal fabric.mod.json
func fabricJar(t *testing.T, dir, name, id, version string) string {
	t.Helper()
	return writeJar(t, dir, name, map[string]string{
		"fabric.mod.json": fmt.Sprintf(`{"schemaVersion": 1, "id": %q, "name": %q, "version": %q, "depends": {"minecraft": "~1.20.1"}}`, id, id+" mod", version),
	})
}

// setModTime sets a file's modification time
func setModTime(t *testing.T, path string, mt time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mt, mt))
}

// fakeCatalog serves canned candidates keyed by mod id
type fakeCatalog struct {
	site       domain.SourceSite
	candidates map[string][]domain.RemoteCandidate
	errs       map[string]error
	searches   atomic.Int32
}

func newFakeCatalog(site domain.SourceSite) *fakeCatalog {
	return &fakeCatalog{
		site:       site,
		candidates: make(map[string][]domain.RemoteCandidate),
		errs:       make(map[string]error),
	}
}

func (f *fakeCatalog) add(c domain.RemoteCandidate) {
	c.Site = f.site
	f.candidates[c.ModID] = append(f.candidates[c.ModID], c)
}

func (f *fakeCatalog) ID() domain.SourceSite { return f.site }
func (f *fakeCatalog) Name() string          { return "fake-" + f.site.String() }

func (f *fakeCatalog) Search(_ context.Context, q source.Query) iter.Seq2[domain.RemoteCandidate, error] {
	f.searches.Add(1)
	return func(yield func(domain.RemoteCandidate, error) bool) {
		if err := f.errs[q.ModID]; err != nil {
			yield(domain.RemoteCandidate{}, err)
			return
		}
		for _, c := range f.candidates[q.ModID] {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (f *fakeCatalog) ResolveFile(_ context.Context, c domain.RemoteCandidate) (source.FileRef, error) {
	if c.DownloadURL == "" {
		return source.FileRef{}, fmt.Errorf("%w: no url", domain.ErrSourceNotFound)
	}
	return source.FileRef{URL: c.DownloadURL, FileName: c.FileName, Size: c.Size, SHA1: c.SHA1}, nil
}
