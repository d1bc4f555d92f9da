// Package ratelimit provides per-host request pacing and concurrency slots for
// outbound catalog queries and downloads.
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter paces requests per host with a token bucket and optionally caps
// the number of concurrent transfers per host.
// Safe for concurrent use.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	slots    map[string]chan struct{}
	limit    rate.Limit
	burst    int
	maxConns int
}

// New creates a host limiter.
// rps <= 0 disables pacing; maxConns <= 0 disables the concurrency cap.
func New(rps float64, burst, maxConns int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		slots:    make(map[string]chan struct{}),
		limit:    limit,
		burst:    burst,
		maxConns: maxConns,
	}
}

// Wait blocks until a request to host is allowed or ctx is done
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if h == nil {
		return nil
	}
	return h.limiter(host).Wait(ctx)
}

// Acquire takes a concurrency slot for host. The returned release func must be called.
func (h *HostLimiter) Acquire(ctx context.Context, host string) (func(), error) {
	if h == nil || h.maxConns <= 0 {
		return func() {}, nil
	}
	slot := h.slot(host)
	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.limiters[host] = l
	}
	return l
}

func (h *HostLimiter) slot(host string) chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.slots[host]
	if !ok {
		s = make(chan struct{}, h.maxConns)
		h.slots[host] = s
	}
	return s
}

// HostOf returns the lowercased host of rawURL, or rawURL itself if it does not parse
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
