package core

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 250 * time.Millisecond
	minPartSize        = 256 << 10 // Ranged parts are never smaller than this
	partialSuffix      = ".downloading"
)

// errRangeIgnored is returned when a server answers a ranged request with the full body
var errRangeIgnored = errors.New("server ignored range request")

// DownloadProgress represents the current state of a download
type DownloadProgress struct {
	TotalBytes int64   // Total size in bytes (0 if unknown)
	Downloaded int64   // Bytes downloaded so far
	Percentage float64 // Completion percentage (0-100)
}

// ProgressFunc is called periodically during download with progress updates.
// Calls are serialized even when parts download concurrently.
type ProgressFunc func(DownloadProgress)

// DownloadRequest describes one file to fetch
type DownloadRequest struct {
	URL      string
	DestPath string
	Threads  int        // Concurrent ranged parts; <= 1 streams in one request
	Gate     *PauseGate // Optional
	Progress ProgressFunc
}

// DownloadResult contains the outcome of a download
type DownloadResult struct {
	Path string // Final file path
	Size int64  // Bytes downloaded
	SHA1 string // Hex SHA1 of the written file
}

// Downloader handles HTTP file downloads with progress tracking
type Downloader struct {
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
}

// NewDownloader creates a new Downloader with the given HTTP client
// If httpClient is nil, http.DefaultClient is used
func NewDownloader(httpClient *http.Client) *Downloader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Downloader{
		httpClient:  httpClient,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
}

// Download fetches req.URL into req.DestPath. The body is written to
// DestPath+".downloading" and renamed into place once complete; on failure
// the partial file is removed. When the server reports a size and accepts
// byte ranges, up to req.Threads parts are fetched concurrently into the
// same file. Transient failures (5xx, transport errors) are retried.
func (d *Downloader) Download(ctx context.Context, req DownloadRequest) (_ *DownloadResult, err error) {
	if err := os.MkdirAll(filepath.Dir(req.DestPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: creating directory: %w", domain.ErrIO, err)
	}

	tempPath := req.DestPath + partialSuffix
	defer func() {
		if err != nil {
			os.Remove(tempPath)
		}
	}()

	size, ranged := d.head(ctx, req.URL)
	parts := partCount(size, req.Threads)

	tracker := &progressTracker{total: size, fn: req.Progress}
	if ranged && parts > 1 {
		err = d.retry(ctx, func() error {
			tracker.reset()
			return d.fetchRanged(ctx, req, tempPath, size, parts, tracker)
		})
		if errors.Is(err, errRangeIgnored) {
			ranged = false
		} else if err != nil {
			return nil, err
		}
	}
	if !ranged || parts <= 1 {
		err = d.retry(ctx, func() error {
			tracker.reset()
			return d.fetchSingle(ctx, req, tempPath, tracker)
		})
		if err != nil {
			return nil, err
		}
	}

	sum, written, err := hashFile(tempPath)
	if err != nil {
		return nil, err
	}

	// Atomically move temp file to final destination
	if err := os.Rename(tempPath, req.DestPath); err != nil {
		return nil, fmt.Errorf("%w: renaming file: %w", domain.ErrIO, err)
	}

	return &DownloadResult{Path: req.DestPath, Size: written, SHA1: sum}, nil
}

// head asks for the size and range support. Failures just disable ranged fetching.
func (d *Downloader) head(ctx context.Context, url string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, false
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, false
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.ContentLength <= 0 {
		return 0, false
	}
	return resp.ContentLength, resp.Header.Get("Accept-Ranges") == "bytes"
}

func partCount(size int64, threads int) int {
	if threads <= 1 || size <= 0 {
		return 1
	}
	maxParts := int((size + minPartSize - 1) / minPartSize)
	return min(threads, maxParts)
}

// retry runs fn until it succeeds, fails permanently, or attempts run out
func (d *Downloader) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) || ctx.Err() != nil {
			break
		}
		if attempt == d.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.retryDelay * time.Duration(attempt)):
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// httpStatusError is a non-success response
type httpStatusError struct {
	code   int
	status string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP error: %s", e.status)
}

func isTransient(err error) bool {
	if errors.Is(err, domain.ErrIO) || errors.Is(err, errRangeIgnored) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.code >= 500 || statusErr.code == http.StatusTooManyRequests
	}
	return true
}

func (d *Downloader) get(ctx context.Context, url, byteRange string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if byteRange != "" {
		req.Header.Set("Range", byteRange)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

func (d *Downloader) fetchSingle(ctx context.Context, req DownloadRequest, tempPath string, tracker *progressTracker) error {
	resp, err := d.get(ctx, req.URL, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{code: resp.StatusCode, status: resp.Status}
	}
	if tracker.total <= 0 && resp.ContentLength > 0 {
		tracker.total = resp.ContentLength
	}

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("%w: creating file: %w", domain.ErrIO, err)
	}

	_, copyErr := io.Copy(file, &gatedReader{ctx: ctx, r: resp.Body, gate: req.Gate, tracker: tracker})
	closeErr := file.Close()
	if copyErr != nil {
		return fmt.Errorf("downloading file: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: closing file: %w", domain.ErrIO, closeErr)
	}
	return nil
}

func (d *Downloader) fetchRanged(ctx context.Context, req DownloadRequest, tempPath string, size int64, parts int, tracker *progressTracker) error {
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("%w: creating file: %w", domain.ErrIO, err)
	}
	if err := file.Truncate(size); err != nil {
		file.Close()
		return fmt.Errorf("%w: allocating file: %w", domain.ErrIO, err)
	}

	partSize := size / int64(parts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parts)
	for i := 0; i < parts; i++ {
		start := int64(i) * partSize
		end := start + partSize - 1
		if i == parts-1 {
			end = size - 1
		}
		g.Go(func() error {
			return d.fetchPart(gctx, req, file, start, end, tracker)
		})
	}

	waitErr := g.Wait()
	closeErr := file.Close()
	if waitErr != nil {
		return waitErr
	}
	if closeErr != nil {
		return fmt.Errorf("%w: closing file: %w", domain.ErrIO, closeErr)
	}
	return nil
}

func (d *Downloader) fetchPart(ctx context.Context, req DownloadRequest, file *os.File, start, end int64, tracker *progressTracker) error {
	resp, err := d.get(ctx, req.URL, fmt.Sprintf("bytes=%d-%d", start, end))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		return errRangeIgnored
	default:
		return &httpStatusError{code: resp.StatusCode, status: resp.Status}
	}

	want := end - start + 1
	w := io.NewOffsetWriter(file, start)
	n, err := io.Copy(w, io.LimitReader(&gatedReader{ctx: ctx, r: resp.Body, gate: req.Gate, tracker: tracker}, want))
	if err != nil {
		return fmt.Errorf("downloading bytes %d-%d: %w", start, end, err)
	}
	if n != want {
		return fmt.Errorf("downloading bytes %d-%d: short read (%d of %d)", start, end, n, want)
	}
	return nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: opening download: %w", domain.ErrIO, err)
	}
	defer f.Close()

	h := sha1.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("%w: hashing download: %w", domain.ErrIO, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// progressTracker aggregates bytes from every part of one download
type progressTracker struct {
	mu         sync.Mutex
	total      int64
	downloaded int64
	fn         ProgressFunc
}

func (p *progressTracker) reset() {
	p.mu.Lock()
	p.downloaded = 0
	p.mu.Unlock()
}

func (p *progressTracker) add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downloaded += int64(n)
	if p.fn == nil {
		return
	}
	progress := DownloadProgress{TotalBytes: p.total, Downloaded: p.downloaded}
	if p.total > 0 {
		progress.Percentage = float64(p.downloaded) / float64(p.total) * 100
	}
	p.fn(progress)
}

// gatedReader blocks while its gate is paused and reports progress
type gatedReader struct {
	ctx     context.Context
	r       io.Reader
	gate    *PauseGate
	tracker *progressTracker
}

func (r *gatedReader) Read(p []byte) (int, error) {
	if err := r.gate.Wait(r.ctx); err != nil {
		return 0, err
	}
	n, err := r.r.Read(p)
	if n > 0 {
		r.tracker.add(n)
	}
	return n, err
}

// PauseGate lets a running download be paused and resumed.
// A nil gate is never paused.
type PauseGate struct {
	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
}

// NewPauseGate creates an open gate
func NewPauseGate() *PauseGate {
	return &PauseGate{}
}

// Pause closes the gate. Returns false if it was already paused.
func (g *PauseGate) Pause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return false
	}
	g.paused = true
	g.resumed = make(chan struct{})
	return true
}

// Resume opens the gate. Returns false if it was not paused.
func (g *PauseGate) Resume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return false
	}
	g.paused = false
	close(g.resumed)
	return true
}

// Paused reports whether the gate is closed
func (g *PauseGate) Paused() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait blocks while the gate is paused or until ctx is done
func (g *PauseGate) Wait(ctx context.Context) error {
	if g == nil {
		return ctx.Err()
	}
	g.mu.Lock()
	paused, ch := g.paused, g.resumed
	g.mu.Unlock()
	if !paused {
		return ctx.Err()
	}
	select {
	case <-ch:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
