package curseforge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_MatchFingerprints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/fingerprints/432", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body fingerprintRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []uint32{3209255620}, body.Fingerprints)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"isCacheBuilt": true,
				"exactMatches": [
					{"id": 238222, "file": {"id": 4593548, "modId": 238222, "fileName": "jei-1.20.1-forge-15.2.0.27.jar"}}
				],
				"exactFingerprints": [3209255620]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test-api-key", nil)
	client.baseURL = server.URL

	matches, err := client.MatchFingerprints(context.Background(), []uint32{3209255620})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 238222, matches[0].ID)
	assert.Equal(t, 4593548, matches[0].File.ID)
}

func TestClient_SearchMods(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/mods/search", r.URL.Path)
		assert.Equal(t, "432", r.URL.Query().Get("gameId"))
		assert.Equal(t, "6", r.URL.Query().Get("classId"))
		assert.Equal(t, "jei", r.URL.Query().Get("slug"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [{"id": 238222, "gameId": 432, "name": "Just Enough Items (JEI)", "slug": "jei", "classId": 6}],
			"pagination": {"index": 0, "pageSize": 20, "resultCount": 1, "totalCount": 1}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test-api-key", nil)
	client.baseURL = server.URL

	mods, err := client.SearchMods(context.Background(), "jei", "")
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, 238222, mods[0].ID)
	assert.Equal(t, "jei", mods[0].Slug)
}

func TestClient_GetModFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/mods/238222/files", r.URL.Path)
		assert.Equal(t, "1.20.1", r.URL.Query().Get("gameVersion"))
		assert.Equal(t, "4", r.URL.Query().Get("modLoaderType"))
		assert.Equal(t, "50", r.URL.Query().Get("index"))
		assert.Equal(t, "50", r.URL.Query().Get("pageSize"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"id": 4593548,
					"modId": 238222,
					"displayName": "jei-1.20.1-fabric-15.2.0.27",
					"fileName": "jei-1.20.1-fabric-15.2.0.27.jar",
					"releaseType": 1,
					"hashes": [{"value": "ABCDEF", "algo": 1}, {"value": "123", "algo": 2}],
					"fileDate": "2024-01-15T10:30:00Z",
					"fileLength": 1234567,
					"gameVersions": ["1.20.1", "Fabric"]
				}
			],
			"pagination": {"index": 50, "pageSize": 50, "resultCount": 1, "totalCount": 51}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "", nil)
	client.baseURL = server.URL

	files, page, err := client.GetModFiles(context.Background(), 238222, "1.20.1", ModLoaderFabric, 50, 500)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "jei-1.20.1-fabric-15.2.0.27.jar", files[0].FileName)
	assert.Equal(t, int64(1234567), files[0].FileLength)
	assert.Equal(t, 51, page.TotalCount)
}

func TestClient_GetDownloadURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/mods/238222/files/4593548/download-url", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": "https://edge.forgecdn.net/files/4593/548/jei.jar"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test-api-key", nil)
	client.baseURL = server.URL

	u, err := client.GetDownloadURL(context.Background(), 238222, 4593548)
	require.NoError(t, err)
	assert.Equal(t, "https://edge.forgecdn.net/files/4593/548/jei.jar", u)
}

func TestClient_DistributionDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test-api-key", nil)
	client.baseURL = server.URL

	_, err := client.GetDownloadURL(context.Background(), 1, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestClient_AuthRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.Client(), "", nil)
	client.baseURL = server.URL

	_, err := client.GetMod(context.Background(), 238222)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test-api-key", nil)
	client.baseURL = server.URL

	_, err := client.GetMod(context.Background(), 999999)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModNotFound)
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test-api-key", nil)
	client.baseURL = server.URL

	_, _, err := client.GetModFiles(context.Background(), 1, "", ModLoaderAny, 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVersionQuery)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestClient_ValidateAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/games/432", r.URL.Path)
		if r.Header.Get("x-api-key") != "good-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"data": {"id": 432, "name": "Minecraft"}}`))
	}))
	defer server.Close()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", "good-key", false},
		{"rejected", "bad-key", true},
		{"missing", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(server.Client(), tt.key, nil)
			client.baseURL = server.URL

			err := client.ValidateAPIKey(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrAuthRequired)
				return
			}
			assert.NoError(t, err)
		})
	}
}
