package curseforge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.curseforge.com"
	maxPageSize    = 50
)

// Client wraps the CurseForge REST API v1
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	limiter    *ratelimit.HostLimiter
}

// NewClient creates a new CurseForge API client.
// limiter may be nil to disable request pacing.
func NewClient(httpClient *http.Client, apiKey string, limiter *ratelimit.HostLimiter) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		limiter:    limiter,
	}
}

// SetAPIKey sets the API key for authentication
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// IsAuthenticated returns true if an API key is configured
func (c *Client) IsAuthenticated() bool {
	return c.apiKey != ""
}

// doRequest performs an HTTP request with authentication.
// body, when non-nil, is sent as JSON.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) (err error) {
	reqURL := c.baseURL + path

	if err := c.limiter.Wait(ctx, ratelimit.HostOf(reqURL)); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: executing request: %w", domain.ErrVersionQuery, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing response body: %w", cerr)
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: CurseForge API key required", domain.ErrAuthRequired)
	}

	if resp.StatusCode == http.StatusForbidden {
		// 403 can mean: no API key, invalid key, OR mod author disabled third-party distribution
		if c.apiKey == "" {
			return fmt.Errorf("%w: CurseForge API key required", domain.ErrAuthRequired)
		}
		if strings.Contains(path, "/files/") && strings.HasSuffix(path, "/download-url") {
			return fmt.Errorf("%w: mod author has disabled third-party downloads", domain.ErrSourceNotFound)
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if len(msg) > 0 {
			return fmt.Errorf("%w: access denied (check API key): %s", domain.ErrAuthRequired, string(msg))
		}
		return fmt.Errorf("%w: access denied (check API key is valid)", domain.ErrAuthRequired)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: resource not found", domain.ErrModNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*1024)) // Limit error body to 10KB
		if readErr != nil {
			return fmt.Errorf("%w: API error (status %d); reading body: %w", domain.ErrVersionQuery, resp.StatusCode, readErr)
		}
		return fmt.Errorf("%w: API error (status %d): %s", domain.ErrVersionQuery, resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decoding response: %w", domain.ErrVersionQuery, err)
	}

	return nil
}

// MatchFingerprints looks up files by their murmur2 fingerprint
func (c *Client) MatchFingerprints(ctx context.Context, fingerprints []uint32) ([]FingerprintMatch, error) {
	var resp APIResponse[FingerprintMatchesResult]
	path := fmt.Sprintf("/v1/fingerprints/%d", GameIDMinecraft)
	if err := c.doRequest(ctx, http.MethodPost, path, fingerprintRequest{Fingerprints: fingerprints}, &resp); err != nil {
		return nil, fmt.Errorf("matching fingerprints: %w", err)
	}
	return resp.Data.ExactMatches, nil
}

// SearchMods searches Minecraft mods by slug or free text
func (c *Client) SearchMods(ctx context.Context, slug, searchFilter string) ([]Mod, error) {
	params := url.Values{}
	params.Set("gameId", strconv.Itoa(GameIDMinecraft))
	params.Set("classId", strconv.Itoa(ClassIDMods))
	if slug != "" {
		params.Set("slug", slug)
	}
	if searchFilter != "" {
		params.Set("searchFilter", searchFilter)
	}
	params.Set("pageSize", "20")

	var resp PaginatedResponse[[]Mod]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/mods/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("searching mods: %w", err)
	}
	return resp.Data, nil
}

// GetMod fetches a single mod by ID
func (c *Client) GetMod(ctx context.Context, modID int) (*Mod, error) {
	var resp APIResponse[Mod]
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/mods/%d", modID), nil, &resp); err != nil {
		return nil, fmt.Errorf("getting mod %d: %w", modID, err)
	}
	return &resp.Data, nil
}

// GetModFiles fetches one page of files for a mod.
// gameVersion and modLoader narrow the listing server-side; pass "" and ModLoaderAny for no filter.
func (c *Client) GetModFiles(ctx context.Context, modID int, gameVersion string, modLoader, index, pageSize int) ([]File, *Pagination, error) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	params := url.Values{}
	if gameVersion != "" {
		params.Set("gameVersion", gameVersion)
	}
	if modLoader != ModLoaderAny {
		params.Set("modLoaderType", strconv.Itoa(modLoader))
	}
	params.Set("index", strconv.Itoa(index))
	params.Set("pageSize", strconv.Itoa(pageSize))

	path := fmt.Sprintf("/v1/mods/%d/files?%s", modID, params.Encode())
	var resp PaginatedResponse[[]File]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, nil, fmt.Errorf("getting mod files: %w", err)
	}
	return resp.Data, &resp.Pagination, nil
}

// GetModFile fetches a specific file by mod and file ID
func (c *Client) GetModFile(ctx context.Context, modID, fileID int) (*File, error) {
	var resp APIResponse[File]
	path := fmt.Sprintf("/v1/mods/%d/files/%d", modID, fileID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting mod file: %w", err)
	}
	return &resp.Data, nil
}

// GetDownloadURL fetches the download URL for a file
func (c *Client) GetDownloadURL(ctx context.Context, modID, fileID int) (string, error) {
	var resp StringDownloadURL
	path := fmt.Sprintf("/v1/mods/%d/files/%d/download-url", modID, fileID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("getting download URL: %w", err)
	}
	return resp.Data, nil
}

// ValidateAPIKey checks the configured key against an endpoint that requires one
func (c *Client) ValidateAPIKey(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: CurseForge API key required", domain.ErrAuthRequired)
	}
	var resp APIResponse[struct {
		ID int `json:"id"`
	}]
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/games/%d", GameIDMinecraft), nil, &resp); err != nil {
		return fmt.Errorf("validating API key: %w", err)
	}
	return nil
}
