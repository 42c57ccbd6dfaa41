package index

import (
	"sync"
	"testing"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

func mustRegistry(t *testing.T, names ...string) *domain.Registry {
	t.Helper()
	addrs := []string{
		"6qfbKwV8Tu1RsUc7R4U6aXPsvRarUm4JhRyuihSueLvH",
		"A3fzMcAvbU4sPfXJfahyjdt3fA5UrvxQZ1VYt32jodrD",
		"3NEDUE4qM2cfMJ3FEkuH4XSuRjfQJv3Fx2nEXw8DHKu4",
	}
	pools := make([]domain.PoolDescriptor, len(names))
	for i, n := range names {
		pools[i] = domain.PoolDescriptor{Name: n, PoolAddress: domain.MustPublicKey(addrs[i])}
	}
	reg, err := domain.NewRegistry(pools)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if index.Loaded() {
		t.Error("NewMemoryIndex() should start unloaded")
	}
	if index.Registry(domain.ClusterMainnet) != nil {
		t.Error("Registry() before Update should be nil")
	}
	if index.Count(domain.ClusterMainnet) != 0 {
		t.Errorf("Count() = %d, want 0", index.Count(domain.ClusterMainnet))
	}
}

func TestUpdate(t *testing.T) {
	index := NewMemoryIndex()

	index.Update(domain.SiteBranding{Title: "Vault"}, map[domain.Cluster]*domain.Registry{
		domain.ClusterMainnet: mustRegistry(t, "basc", "abducted-basc"),
		domain.ClusterDevnet:  mustRegistry(t, "basc"),
	})

	if !index.Loaded() {
		t.Error("Loaded() = false after Update")
	}
	if got := index.Count(domain.ClusterMainnet); got != 2 {
		t.Errorf("mainnet Count() = %d, want 2", got)
	}
	if got := index.Count(domain.ClusterDevnet); got != 1 {
		t.Errorf("devnet Count() = %d, want 1", got)
	}
	if index.Site().Title != "Vault" {
		t.Errorf("Site().Title = %q", index.Site().Title)
	}
	if index.GetLastReload().IsZero() {
		t.Error("GetLastReload() should be set after Update")
	}
}

func TestRegistryFallsBackToMainnet(t *testing.T) {
	index := NewMemoryIndex()
	index.Update(domain.SiteBranding{}, map[domain.Cluster]*domain.Registry{
		domain.ClusterMainnet: mustRegistry(t, "basc", "abducted-basc"),
	})

	if got := index.Count(domain.ClusterTestnet); got != 2 {
		t.Errorf("testnet Count() = %d, want mainnet fallback 2", got)
	}
}

func TestUpdateOverwrites(t *testing.T) {
	index := NewMemoryIndex()
	index.Update(domain.SiteBranding{}, map[domain.Cluster]*domain.Registry{
		domain.ClusterMainnet: mustRegistry(t, "a"),
		domain.ClusterDevnet:  mustRegistry(t, "b"),
	})
	index.Update(domain.SiteBranding{}, map[domain.Cluster]*domain.Registry{
		domain.ClusterMainnet: mustRegistry(t, "x", "y", "z"),
	})

	if got := index.Count(domain.ClusterDevnet); got != 3 {
		t.Errorf("stale devnet registry survived Update, Count() = %d", got)
	}
	if index.Reloads() != 2 {
		t.Errorf("Reloads() = %d, want 2", index.Reloads())
	}
}

func TestUpdateCopiesMap(t *testing.T) {
	index := NewMemoryIndex()
	regs := map[domain.Cluster]*domain.Registry{
		domain.ClusterMainnet: mustRegistry(t, "a"),
	}
	index.Update(domain.SiteBranding{}, regs)
	regs[domain.ClusterDevnet] = mustRegistry(t, "b", "c")

	if got := index.Count(domain.ClusterDevnet); got != 1 {
		t.Errorf("index observed caller map mutation, Count() = %d", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()
	reg := mustRegistry(t, "basc", "abducted-basc")

	var wg sync.WaitGroup

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r := index.Registry(domain.ClusterMainnet); r != nil && r.Len() != 2 {
				t.Errorf("reader saw partial registry: %d pools", r.Len())
			}
		}()
	}

	// Concurrent reloads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			index.Update(domain.SiteBranding{}, map[domain.Cluster]*domain.Registry{domain.ClusterMainnet: reg})
		}()
	}

	wg.Wait()

	if index.Reloads() != 100 {
		t.Errorf("Concurrent Update() reloads = %v, want 100", index.Reloads())
	}
}
