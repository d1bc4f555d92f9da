package curseforge

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/ratelimit"
	"github.com/DonovanMods/mc-mod-manager/internal/source"
)

const edgeCDN = "https://edge.forgecdn.net/files"

// CurseForge implements the CatalogClient interface
type CurseForge struct {
	client *Client
	// projectCache maps a lookup key (fingerprint or slug) to a CurseForge project id
	projectCache map[string]int
	cacheMu      sync.RWMutex
}

var _ source.CatalogClient = (*CurseForge)(nil)

// New creates a new CurseForge source
func New(httpClient *http.Client, apiKey string, limiter *ratelimit.HostLimiter) *CurseForge {
	return &CurseForge{
		client:       NewClient(httpClient, apiKey, limiter),
		projectCache: make(map[string]int),
	}
}

// ID returns the source identifier
func (c *CurseForge) ID() domain.SourceSite {
	return domain.SiteCurseforge
}

// Name returns the display name
func (c *CurseForge) Name() string {
	return "CurseForge"
}

// AuthURL returns where an API key can be obtained
func (c *CurseForge) AuthURL() string {
	return "https://console.curseforge.com/"
}

// SetAPIKey sets the API key for authentication
func (c *CurseForge) SetAPIKey(key string) {
	c.client.SetAPIKey(key)
}

// IsAuthenticated returns true if an API key is configured
func (c *CurseForge) IsAuthenticated() bool {
	return c.client.IsAuthenticated()
}

// Search yields every file of the project the query resolves to.
// Files are listed newest first, one API page at a time. A query that matches
// no project yields nothing.
func (c *CurseForge) Search(ctx context.Context, query source.Query) iter.Seq2[domain.RemoteCandidate, error] {
	return func(yield func(domain.RemoteCandidate, error) bool) {
		projectID, err := c.resolveProject(ctx, query)
		if err != nil {
			yield(domain.RemoteCandidate{}, err)
			return
		}
		if projectID == 0 {
			return
		}

		loader := loaderTypeFor(query.Loaders)
		index := 0
		for {
			select {
			case <-ctx.Done():
				yield(domain.RemoteCandidate{}, ctx.Err())
				return
			default:
			}

			files, page, err := c.client.GetModFiles(ctx, projectID, "", loader, index, maxPageSize)
			if err != nil {
				yield(domain.RemoteCandidate{}, err)
				return
			}
			for _, f := range files {
				if f.IsServerPack {
					continue
				}
				if !yield(toCandidate(query.ModID, f), nil) {
					return
				}
			}
			index += len(files)
			if len(files) == 0 || index >= page.TotalCount {
				return
			}
		}
	}
}

// ResolveFile returns a downloadable reference for a candidate.
// The file listing usually carries the URL; otherwise the download-url endpoint
// is asked, and as a last resort the CDN path is derived from the file id.
func (c *CurseForge) ResolveFile(ctx context.Context, candidate domain.RemoteCandidate) (source.FileRef, error) {
	ref := source.FileRef{
		URL:      candidate.DownloadURL,
		FileName: candidate.FileName,
		Size:     candidate.Size,
		SHA1:     candidate.SHA1,
	}
	if ref.URL != "" {
		return ref, nil
	}

	modID, fileID, err := parseRef(candidate.Ref)
	if err != nil {
		return source.FileRef{}, err
	}

	downloadURL, err := c.client.GetDownloadURL(ctx, modID, fileID)
	if err != nil && !errors.Is(err, domain.ErrModNotFound) {
		return source.FileRef{}, err
	}
	if downloadURL == "" {
		if candidate.FileName == "" {
			return source.FileRef{}, fmt.Errorf("%w: no download URL for file %d", domain.ErrSourceNotFound, fileID)
		}
		downloadURL = fmt.Sprintf("%s/%d/%d/%s", edgeCDN, fileID/1000, fileID%1000, url.PathEscape(candidate.FileName))
	}
	ref.URL = downloadURL
	return ref, nil
}

// resolveProject finds the CurseForge project id for a query, by fingerprint
// first and by slug second. Returns 0 when the catalog does not know the mod.
func (c *CurseForge) resolveProject(ctx context.Context, query source.Query) (int, error) {
	var keys []string
	if query.Fingerprint != 0 {
		keys = append(keys, "fp:"+strconv.FormatUint(uint64(query.Fingerprint), 10))
	}
	if query.ModID != "" {
		keys = append(keys, "slug:"+strings.ToLower(query.ModID))
	}

	c.cacheMu.RLock()
	for _, k := range keys {
		if id, ok := c.projectCache[k]; ok {
			c.cacheMu.RUnlock()
			return id, nil
		}
	}
	c.cacheMu.RUnlock()

	id, err := c.lookupProject(ctx, query)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		c.cacheMu.Lock()
		for _, k := range keys {
			c.projectCache[k] = id
		}
		c.cacheMu.Unlock()
	}
	return id, nil
}

func (c *CurseForge) lookupProject(ctx context.Context, query source.Query) (int, error) {
	if query.Fingerprint != 0 {
		matches, err := c.client.MatchFingerprints(ctx, []uint32{query.Fingerprint})
		if err != nil {
			return 0, err
		}
		for _, m := range matches {
			if m.ID != 0 {
				return m.ID, nil
			}
			if m.File.ModID != 0 {
				return m.File.ModID, nil
			}
		}
	}

	if query.ModID == "" {
		return 0, nil
	}
	mods, err := c.client.SearchMods(ctx, query.ModID, "")
	if err != nil {
		if errors.Is(err, domain.ErrModNotFound) {
			return 0, nil
		}
		return 0, err
	}
	for _, m := range mods {
		if strings.EqualFold(m.Slug, query.ModID) {
			return m.ID, nil
		}
	}
	return 0, nil
}

func toCandidate(modID string, f File) domain.RemoteCandidate {
	loaders, gameVersions := splitGameVersions(f.GameVersions)
	version := extractVersion(f.DisplayName, f.FileName)
	if version == "" {
		version = f.DisplayName
	}
	return domain.RemoteCandidate{
		Site:         domain.SiteCurseforge,
		ModID:        modID,
		Version:      version,
		GameVersions: gameVersions,
		Loaders:      loaders,
		DownloadURL:  f.DownloadURL,
		PublishedAt:  f.FileDate,
		FileName:     f.FileName,
		Size:         f.FileLength,
		SHA1:         sha1Of(f.Hashes),
		Ref:          fmt.Sprintf("%d:%d", f.ModID, f.ID),
	}
}

func parseRef(ref string) (modID, fileID int, err error) {
	m, f, ok := strings.Cut(ref, ":")
	if ok {
		modID, err = strconv.Atoi(m)
		if err == nil {
			fileID, err = strconv.Atoi(f)
		}
	}
	if !ok || err != nil {
		return 0, 0, fmt.Errorf("%w: invalid CurseForge file reference %q", domain.ErrSourceNotFound, ref)
	}
	return modID, fileID, nil
}

func sha1Of(hashes []FileHash) string {
	for _, h := range hashes {
		if h.Algo == HashAlgoSHA1 {
			return strings.ToLower(h.Value)
		}
	}
	return ""
}

var loaderNames = map[string]int{
	"forge":      ModLoaderForge,
	"fabric":     ModLoaderFabric,
	"quilt":      ModLoaderQuilt,
	"neoforge":   ModLoaderNeoForge,
	"liteloader": ModLoaderLiteLoader,
}

// splitGameVersions separates CurseForge's mixed gameVersions list into loader
// names and Minecraft versions. Side markers ("Client", "Server") and Java
// versions are dropped.
func splitGameVersions(values []string) (loaders, gameVersions []string) {
	for _, v := range values {
		lower := strings.ToLower(strings.TrimSpace(v))
		if _, ok := loaderNames[lower]; ok {
			loaders = append(loaders, lower)
			continue
		}
		if lower != "" && lower[0] >= '0' && lower[0] <= '9' {
			gameVersions = append(gameVersions, v)
		}
	}
	return loaders, gameVersions
}

// loaderTypeFor narrows the file listing server-side when the installed file
// targets exactly one known loader
func loaderTypeFor(loaders []string) int {
	if len(loaders) != 1 {
		return ModLoaderAny
	}
	return loaderNames[strings.ToLower(loaders[0])]
}

var versionRegex = regexp.MustCompile(`[vV]?(\d+\.\d+(?:\.\d+)?(?:\.\d+)?(?:[-+][a-zA-Z][\w.]*)?)`)

// extractVersion attempts to extract a version string from a display name or filename
// Returns the last version-like pattern found (mod version typically comes after MC version)
func extractVersion(displayName, fileName string) string {
	for _, s := range []string{displayName, fileName} {
		if s == "" {
			continue
		}
		base := strings.TrimSuffix(s, domain.SuffixJar)

		// "jei-1.20.1-forge-15.3.0.4" -> the last match is the mod version
		matches := versionRegex.FindAllStringSubmatch(base, -1)
		if len(matches) > 0 {
			return matches[len(matches)-1][1]
		}
	}
	return ""
}
