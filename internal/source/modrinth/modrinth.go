package modrinth

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"sync"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/ratelimit"
	"github.com/DonovanMods/mc-mod-manager/internal/source"
)

// Modrinth implements the CatalogClient interface
type Modrinth struct {
	client *Client
	// projectCache maps a file hash or slug to a Modrinth project id
	projectCache map[string]string
	cacheMu      sync.RWMutex
}

var _ source.CatalogClient = (*Modrinth)(nil)

// New creates a new Modrinth source
func New(httpClient *http.Client, apiKey, userAgent string, limiter *ratelimit.HostLimiter) *Modrinth {
	return &Modrinth{
		client:       NewClient(httpClient, apiKey, userAgent, limiter),
		projectCache: make(map[string]string),
	}
}

// ID returns the source identifier
func (m *Modrinth) ID() domain.SourceSite {
	return domain.SiteModrinth
}

// Name returns the display name
func (m *Modrinth) Name() string {
	return "Modrinth"
}

// SetAPIKey sets the personal access token
func (m *Modrinth) SetAPIKey(key string) {
	m.client.SetAPIKey(key)
}

// Search yields the versions of the project the query resolves to, filtered
// by the installed file's loaders. Modrinth returns the full listing in one
// response, newest first.
func (m *Modrinth) Search(ctx context.Context, query source.Query) iter.Seq2[domain.RemoteCandidate, error] {
	return func(yield func(domain.RemoteCandidate, error) bool) {
		projectID, err := m.resolveProject(ctx, query)
		if err != nil {
			yield(domain.RemoteCandidate{}, err)
			return
		}
		if projectID == "" {
			return
		}

		versions, err := m.client.GetProjectVersions(ctx, projectID, loaderFilter(query.Loaders), nil)
		if err != nil {
			if errors.Is(err, domain.ErrModNotFound) {
				return
			}
			yield(domain.RemoteCandidate{}, err)
			return
		}
		for _, v := range versions {
			c, ok := toCandidate(query.ModID, v)
			if !ok {
				continue
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

// ResolveFile returns the primary file of the candidate's version
func (m *Modrinth) ResolveFile(ctx context.Context, candidate domain.RemoteCandidate) (source.FileRef, error) {
	if candidate.DownloadURL != "" {
		return source.FileRef{
			URL:      candidate.DownloadURL,
			FileName: candidate.FileName,
			Size:     candidate.Size,
			SHA1:     candidate.SHA1,
		}, nil
	}
	if candidate.Ref == "" {
		return source.FileRef{}, fmt.Errorf("%w: candidate has no Modrinth version id", domain.ErrSourceNotFound)
	}

	v, err := m.client.GetVersion(ctx, candidate.Ref)
	if err != nil {
		return source.FileRef{}, err
	}
	f, ok := v.PrimaryFile()
	if !ok {
		return source.FileRef{}, fmt.Errorf("%w: version %s has no files", domain.ErrSourceNotFound, candidate.Ref)
	}
	return source.FileRef{URL: f.URL, FileName: f.Filename, Size: f.Size, SHA1: strings.ToLower(f.Hashes["sha1"])}, nil
}

// resolveProject finds the project by file hash first, then by treating the
// mod id as a slug. Returns "" when the catalog does not know the mod.
func (m *Modrinth) resolveProject(ctx context.Context, query source.Query) (string, error) {
	var keys []string
	if query.FileHash != "" {
		keys = append(keys, "sha1:"+strings.ToLower(query.FileHash))
	}
	if query.ModID != "" {
		keys = append(keys, "slug:"+strings.ToLower(query.ModID))
	}

	m.cacheMu.RLock()
	for _, k := range keys {
		if id, ok := m.projectCache[k]; ok {
			m.cacheMu.RUnlock()
			return id, nil
		}
	}
	m.cacheMu.RUnlock()

	id, err := m.lookupProject(ctx, query)
	if err != nil {
		return "", err
	}
	if id != "" {
		m.cacheMu.Lock()
		for _, k := range keys {
			m.projectCache[k] = id
		}
		m.cacheMu.Unlock()
	}
	return id, nil
}

func (m *Modrinth) lookupProject(ctx context.Context, query source.Query) (string, error) {
	if query.FileHash != "" {
		v, err := m.client.GetVersionByHash(ctx, query.FileHash)
		switch {
		case err == nil && v.ProjectID != "":
			return v.ProjectID, nil
		case err != nil && !errors.Is(err, domain.ErrModNotFound):
			return "", err
		}
	}

	if query.ModID == "" {
		return "", nil
	}
	p, err := m.client.GetProject(ctx, query.ModID)
	if err != nil {
		if errors.Is(err, domain.ErrModNotFound) {
			return "", nil
		}
		return "", err
	}
	if p.ProjectType != "" && p.ProjectType != "mod" {
		return "", nil
	}
	return p.ID, nil
}

func toCandidate(modID string, v Version) (domain.RemoteCandidate, bool) {
	f, ok := v.PrimaryFile()
	if !ok {
		return domain.RemoteCandidate{}, false
	}
	loaders := make([]string, 0, len(v.Loaders))
	for _, l := range v.Loaders {
		loaders = append(loaders, strings.ToLower(l))
	}
	return domain.RemoteCandidate{
		Site:         domain.SiteModrinth,
		ModID:        modID,
		Version:      v.VersionNumber,
		GameVersions: v.GameVersions,
		Loaders:      loaders,
		DownloadURL:  f.URL,
		PublishedAt:  v.DatePublished,
		FileName:     f.Filename,
		Size:         f.Size,
		SHA1:         strings.ToLower(f.Hashes["sha1"]),
		Ref:          v.ID,
	}, true
}

// loaderFilter drops the wildcard loader so the listing is not narrowed by it
func loaderFilter(loaders []string) []string {
	var out []string
	for _, l := range loaders {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || l == "any" || l == "*" {
			continue
		}
		out = append(out, l)
	}
	return out
}
