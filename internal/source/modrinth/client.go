package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/ratelimit"
)

const (
	defaultBaseURL   = "https://api.modrinth.com/v2"
	defaultUserAgent = "DonovanMods/mc-mod-manager"
)

// Client wraps the Modrinth REST API v2
type Client struct {
	httpClient *http.Client
	apiKey     string
	userAgent  string
	baseURL    string
	limiter    *ratelimit.HostLimiter
}

// NewClient creates a new Modrinth API client.
// The API key is optional; public endpoints work without one.
func NewClient(httpClient *http.Client, apiKey, userAgent string, limiter *ratelimit.HostLimiter) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		userAgent:  userAgent,
		baseURL:    defaultBaseURL,
		limiter:    limiter,
	}
}

// SetAPIKey sets the personal access token sent with requests
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result any) (err error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if err := c.limiter.Wait(ctx, ratelimit.HostOf(reqURL)); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	// Modrinth rejects requests without an identifying User-Agent
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
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

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: Modrinth rejected the access token", domain.ErrAuthRequired)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: resource not found", domain.ErrModNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 10*1024))
		return fmt.Errorf("%w: API error (status %d): %s", domain.ErrVersionQuery, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decoding response: %w", domain.ErrVersionQuery, err)
	}
	return nil
}

// GetVersionByHash retrieves version information using the file's SHA1 hash
func (c *Client) GetVersionByHash(ctx context.Context, sha1 string) (*Version, error) {
	var version Version
	params := url.Values{"algorithm": {"sha1"}}
	if err := c.doRequest(ctx, "/version_file/"+url.PathEscape(sha1), params, &version); err != nil {
		return nil, fmt.Errorf("getting version by hash %q: %w", sha1, err)
	}
	return &version, nil
}

// GetProject retrieves details for a project by id or slug
func (c *Client) GetProject(ctx context.Context, idOrSlug string) (*Project, error) {
	var project Project
	if err := c.doRequest(ctx, "/project/"+url.PathEscape(idOrSlug), nil, &project); err != nil {
		return nil, fmt.Errorf("getting project %q: %w", idOrSlug, err)
	}
	return &project, nil
}

// GetProjectVersions lists a project's versions, newest first.
// Empty filters are omitted.
func (c *Client) GetProjectVersions(ctx context.Context, idOrSlug string, loaders, gameVersions []string) ([]Version, error) {
	params := url.Values{}
	if len(loaders) > 0 {
		buf, _ := json.Marshal(loaders)
		params.Set("loaders", string(buf))
	}
	if len(gameVersions) > 0 {
		buf, _ := json.Marshal(gameVersions)
		params.Set("game_versions", string(buf))
	}

	var versions []Version
	if err := c.doRequest(ctx, "/project/"+url.PathEscape(idOrSlug)+"/version", params, &versions); err != nil {
		return nil, fmt.Errorf("getting project versions for %q: %w", idOrSlug, err)
	}
	return versions, nil
}

// GetVersion retrieves a single version by id
func (c *Client) GetVersion(ctx context.Context, versionID string) (*Version, error) {
	var version Version
	if err := c.doRequest(ctx, "/version/"+url.PathEscape(versionID), nil, &version); err != nil {
		return nil, fmt.Errorf("getting version %q: %w", versionID, err)
	}
	return &version, nil
}
