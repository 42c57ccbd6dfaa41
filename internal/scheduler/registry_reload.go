package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/index"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/metrics"
	"github.com/MrSnakeDoc/stakehub/internal/sources/registry"
)

// RegistryReloader handles periodic reloading of the pool registry file
type RegistryReloader struct {
	loader        *registry.Loader
	index         *index.MemoryIndex
	metrics       *metrics.Metrics
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	onReload      func(*registry.Catalog)
}

// NewRegistryReloader creates a new registry reloader
func NewRegistryReloader(
	registryFile string,
	idx *index.MemoryIndex,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *RegistryReloader {
	return &RegistryReloader{
		loader:        registry.NewLoader(registryFile),
		index:         idx,
		metrics:       m,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// OnReload registers fn to run after every successful reload.
func (rr *RegistryReloader) OnReload(fn func(*registry.Catalog)) {
	rr.onReload = fn
}

// Start loads the registry once and begins the periodic reload process.
// A registry that fails to load at start-up is fatal.
func (rr *RegistryReloader) Start(ctx context.Context) error {
	if err := rr.Reload(ctx); err != nil {
		return fmt.Errorf("initial registry load failed: %w", err)
	}

	ticker := time.NewTicker(rr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := rr.Reload(ctx); err != nil {
					rr.logger.Error("failed to reload registry, keeping previous version",
						logger.Error(err))
				}
			case <-rr.manualTrigger:
				rr.logger.Info("manual registry reload triggered")
				if err := rr.Reload(ctx); err != nil {
					rr.logger.Error("failed to reload registry, keeping previous version",
						logger.Error(err))
				}
			case <-rr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (rr *RegistryReloader) Stop() {
	close(rr.stopCh)
}

// Reload reads, validates and publishes the registry. The index is only
// swapped when every cluster's registry is valid.
func (rr *RegistryReloader) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rr.logger.Info("reloading pool registry",
		logger.String("file", rr.loader.Path()))

	catalog, err := rr.load()
	rr.metrics.RegistryReload(err)
	if err != nil {
		return err
	}

	rr.index.Update(catalog.Site, catalog.Registries)

	for _, c := range domain.Clusters {
		reg := catalog.Registry(c)
		for _, w := range catalog.Warnings[c] {
			rr.logger.Warn("registry warning",
				logger.String("cluster", c.String()),
				logger.String("pool", w.Pool),
				logger.String("field", w.Field),
				logger.String("message", w.Message))
		}
		listed := len(domain.ListedDescriptors(reg.All()))
		rr.metrics.SetRegistryPools(c.String(), listed, reg.Len()-listed)
		rr.logger.Info("loaded pool registry",
			logger.String("cluster", c.String()),
			logger.Int("pools", reg.Len()),
			logger.Int("listed", listed))
	}

	if rr.onReload != nil {
		rr.onReload(catalog)
	}
	return nil
}

func (rr *RegistryReloader) load() (*registry.Catalog, error) {
	file, err := rr.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	catalog, err := registry.Build(file)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	return catalog, nil
}
