package source

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// Registry holds the catalog clients available for planning and downloads
type Registry struct {
	mu      sync.RWMutex
	clients map[domain.SourceSite]CatalogClient
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{clients: make(map[domain.SourceSite]CatalogClient)}
}

// Register adds a client, replacing any client for the same site
func (r *Registry) Register(client CatalogClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID()] = client
}

// Get returns the client for a site
func (r *Registry) Get(site domain.SourceSite) (CatalogClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[site]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, site)
	}
	return client, nil
}

// Ordered returns the registered clients for sites, in the order given.
// Unregistered and repeated sites are skipped.
func (r *Registry) Ordered(sites []domain.SourceSite) []CatalogClient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CatalogClient, 0, len(sites))
	seen := make(map[domain.SourceSite]bool, len(sites))
	for _, site := range sites {
		client, ok := r.clients[site]
		if !ok || seen[site] {
			continue
		}
		seen[site] = true
		out = append(out, client)
	}
	return out
}

// List returns all registered clients ordered by site
func (r *Registry) List() []CatalogClient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.SortedFunc(maps.Values(r.clients), func(a, b CatalogClient) int {
		return cmp.Compare(a.ID(), b.ID())
	})
}
