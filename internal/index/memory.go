package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

// MemoryIndex holds the active pool registries, one per cluster.
// A reload swaps the whole set atomically; readers never see a half-applied
// registry file.
type MemoryIndex struct {
	mu         sync.RWMutex
	site       domain.SiteBranding
	registries map[domain.Cluster]*domain.Registry
	lastReload time.Time // Timestamp of last successful reload
	reloads    int
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		registries: make(map[domain.Cluster]*domain.Registry),
	}
}

// Update replaces the site branding and every cluster registry
func (idx *MemoryIndex) Update(site domain.SiteBranding, registries map[domain.Cluster]*domain.Registry) {
	next := make(map[domain.Cluster]*domain.Registry, len(registries))
	for c, r := range registries {
		next[c] = r
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.site = site
	idx.registries = next
	idx.lastReload = time.Now()
	idx.reloads++
}

// Registry returns the registry for cluster, falling back to mainnet.
// Returns nil before the first Update.
func (idx *MemoryIndex) Registry(cluster domain.Cluster) *domain.Registry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if r, ok := idx.registries[cluster]; ok {
		return r
	}
	return idx.registries[domain.ClusterMainnet]
}

// Site returns the site-wide branding
func (idx *MemoryIndex) Site() domain.SiteBranding {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.site
}

// Count returns the number of pools in the cluster's registry
func (idx *MemoryIndex) Count(cluster domain.Cluster) int {
	r := idx.Registry(cluster)
	if r == nil {
		return 0
	}
	return r.Len()
}

// Loaded reports whether a registry has been installed
func (idx *MemoryIndex) Loaded() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.registries) > 0
}

// GetLastReload returns the timestamp of the last successful reload
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

// Reloads returns how many times the index has been updated
func (idx *MemoryIndex) Reloads() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.reloads
}
