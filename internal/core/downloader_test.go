package core_test

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DonovanMods/mc-mod-manager/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// rangeServer serves content with Range support and counts ranged GETs
func rangeServer(t *testing.T, content []byte, ranged *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.Header.Get("Range") != "" {
			ranged.Add(1)
		}
		http.ServeContent(w, r, "mod.jar", time.Time{}, bytes.NewReader(content))
	}))
}

func TestDownloader_Download_ReturnsChecksum(t *testing.T) {
	content := []byte("hello world")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	downloader := core.NewDownloader(nil)
	destPath := filepath.Join(t.TempDir(), "test.jar")

	result, err := downloader.Download(context.Background(), core.DownloadRequest{URL: server.URL, DestPath: destPath})
	require.NoError(t, err)

	assert.Equal(t, destPath, result.Path)
	assert.Equal(t, int64(len(content)), result.Size)
	assert.Equal(t, "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed", result.SHA1)

	data, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestDownloader_Download_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	destPath := filepath.Join(t.TempDir(), "test.jar")
	_, err := core.NewDownloader(nil).Download(ctx, core.DownloadRequest{URL: server.URL, DestPath: destPath})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(destPath + ".downloading")
	assert.True(t, os.IsNotExist(statErr), "partial file should be removed")
}

func TestDownloader_Download_HTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"not found", http.StatusNotFound, "404"},
		{"forbidden", http.StatusForbidden, "403"},
		{"server error", http.StatusInternalServerError, "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			destPath := filepath.Join(t.TempDir(), "test.jar")
			_, err := core.NewDownloader(nil).Download(context.Background(), core.DownloadRequest{URL: server.URL, DestPath: destPath})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NoFileExists(t, destPath)
		})
	}
}

func TestDownloader_Download_RetriesOnTransientError(t *testing.T) {
	var attempts atomic.Int32
	content := []byte("success after retry")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(content)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "test.jar")
	result, err := core.NewDownloader(nil).Download(context.Background(), core.DownloadRequest{URL: server.URL, DestPath: destPath})
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, sha1Hex(content), result.SHA1)
}

func TestDownloader_Download_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			attempts.Add(1)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "test.jar")
	_, err := core.NewDownloader(nil).Download(context.Background(), core.DownloadRequest{URL: server.URL, DestPath: destPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDownloader_Download_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			attempts.Add(1)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := core.NewDownloader(nil).Download(context.Background(), core.DownloadRequest{URL: server.URL, DestPath: filepath.Join(t.TempDir(), "x.jar")})
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDownloader_Download_CreatesDirectories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content"))
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "nested", "dir", "test.jar")
	_, err := core.NewDownloader(nil).Download(context.Background(), core.DownloadRequest{URL: server.URL, DestPath: destPath})
	require.NoError(t, err)
	assert.FileExists(t, destPath)
}

func TestDownloader_Download_ProgressTracking(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write(content)
	}))
	defer server.Close()

	var last core.DownloadProgress
	calls := 0
	req := core.DownloadRequest{
		URL:      server.URL,
		DestPath: filepath.Join(t.TempDir(), "test.jar"),
		Progress: func(p core.DownloadProgress) {
			calls++
			last = p
		},
	}

	_, err := core.NewDownloader(nil).Download(context.Background(), req)
	require.NoError(t, err)
	require.Positive(t, calls)
	assert.Equal(t, int64(1000), last.TotalBytes)
	assert.Equal(t, int64(1000), last.Downloaded)
	assert.InDelta(t, 100.0, last.Percentage, 0.001)
}

func TestDownloader_Download_UnknownContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush() // forces chunked encoding
		w.Write([]byte("streamed"))
	}))
	defer server.Close()

	var last core.DownloadProgress
	req := core.DownloadRequest{
		URL:      server.URL,
		DestPath: filepath.Join(t.TempDir(), "test.jar"),
		Threads:  4,
		Progress: func(p core.DownloadProgress) { last = p },
	}
	result, err := core.NewDownloader(nil).Download(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(8), result.Size)
	assert.Equal(t, int64(0), last.TotalBytes)
	assert.Zero(t, last.Percentage)
}

func TestDownloader_Download_Ranged(t *testing.T) {
	content := make([]byte, 1<<20)
	for i := range content {
		content[i] = byte(i * 31)
	}
	var ranged atomic.Int32
	server := rangeServer(t, content, &ranged)
	defer server.Close()

	var mu sync.Mutex
	var last core.DownloadProgress
	req := core.DownloadRequest{
		URL:      server.URL,
		DestPath: filepath.Join(t.TempDir(), "big.jar"),
		Threads:  4,
		Progress: func(p core.DownloadProgress) {
			mu.Lock()
			last = p
			mu.Unlock()
		},
	}

	result, err := core.NewDownloader(nil).Download(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(4), ranged.Load())
	assert.Equal(t, sha1Hex(content), result.SHA1)
	assert.Equal(t, int64(len(content)), result.Size)
	assert.Equal(t, int64(len(content)), last.Downloaded)

	data, err := os.ReadFile(req.DestPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, data))
}

func TestDownloader_Download_SmallFileSkipsRanges(t *testing.T) {
	content := []byte(strings.Repeat("small", 100))
	var ranged atomic.Int32
	server := rangeServer(t, content, &ranged)
	defer server.Close()

	req := core.DownloadRequest{URL: server.URL, DestPath: filepath.Join(t.TempDir(), "s.jar"), Threads: 8}
	result, err := core.NewDownloader(nil).Download(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, ranged.Load())
	assert.Equal(t, sha1Hex(content), result.SHA1)
}

func TestDownloader_Download_RangeIgnoredFallsBack(t *testing.T) {
	content := bytes.Repeat([]byte("r"), 1<<20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Advertises ranges but always answers with the full body
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", "1048576")
		if r.Method == http.MethodHead {
			return
		}
		w.Write(content)
	}))
	defer server.Close()

	req := core.DownloadRequest{URL: server.URL, DestPath: filepath.Join(t.TempDir(), "r.jar"), Threads: 4}
	result, err := core.NewDownloader(nil).Download(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, sha1Hex(content), result.SHA1)
}

func TestDownloader_Download_CustomHTTPClient(t *testing.T) {
	var userAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := &http.Client{Transport: &testRoundTripper{base: http.DefaultTransport}}
	_, err := core.NewDownloader(client).Download(context.Background(), core.DownloadRequest{URL: server.URL, DestPath: filepath.Join(t.TempDir(), "a.jar")})
	require.NoError(t, err)
	assert.Equal(t, "mcmm-test/1.0", userAgent.Load())
}

type testRoundTripper struct {
	base http.RoundTripper
}

func (t *testRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "mcmm-test/1.0")
	return t.base.RoundTrip(req)
}

func TestDownloader_Download_WriteTempFirst(t *testing.T) {
	destDir := t.TempDir()
	destPath := filepath.Join(destDir, "test.jar")
	release := make(chan struct{})
	started := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}
		w.Write([]byte("first half "))
		w.(http.Flusher).Flush()
		close(started)
		<-release
		w.Write([]byte("second half"))
	}))
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		_, err := core.NewDownloader(nil).Download(context.Background(), core.DownloadRequest{URL: server.URL, DestPath: destPath})
		done <- err
	}()

	<-started
	assert.Eventually(t, func() bool {
		_, err := os.Stat(destPath + ".downloading")
		return err == nil
	}, time.Second, 10*time.Millisecond)
	assert.NoFileExists(t, destPath)

	close(release)
	require.NoError(t, <-done)
	assert.FileExists(t, destPath)
	assert.NoFileExists(t, destPath+".downloading")
}

func TestDownloader_Download_PauseResume(t *testing.T) {
	content := bytes.Repeat([]byte("p"), 64<<10)
	var ranged atomic.Int32
	server := rangeServer(t, content, &ranged)
	defer server.Close()

	gate := core.NewPauseGate()
	require.True(t, gate.Pause())
	assert.False(t, gate.Pause())
	assert.True(t, gate.Paused())

	done := make(chan error, 1)
	go func() {
		_, err := core.NewDownloader(nil).Download(context.Background(), core.DownloadRequest{
			URL:      server.URL,
			DestPath: filepath.Join(t.TempDir(), "p.jar"),
			Gate:     gate,
		})
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("download finished while paused: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	require.True(t, gate.Resume())
	assert.False(t, gate.Resume())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("download did not finish after resume")
	}
}

func TestPauseGate_WaitCancelled(t *testing.T) {
	gate := core.NewPauseGate()
	gate.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, gate.Wait(ctx), context.DeadlineExceeded)

	var nilGate *core.PauseGate
	assert.False(t, nilGate.Paused())
	assert.NoError(t, nilGate.Wait(context.Background()))
}

func TestNewDownloader(t *testing.T) {
	assert.NotNil(t, core.NewDownloader(nil))
	assert.NotNil(t, core.NewDownloader(&http.Client{}))
}
