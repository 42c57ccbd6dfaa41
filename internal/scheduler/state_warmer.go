package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/index"
	"github.com/MrSnakeDoc/stakehub/internal/livestate"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/metrics"
)

// StateWarmer periodically refreshes the live-state cache of every
// registered pool so page views rarely wait on the RPC node.
type StateWarmer struct {
	scheduler *gocron.Scheduler
	index     *index.MemoryIndex
	provider  *livestate.Provider
	clusters  []domain.Cluster
	interval  time.Duration
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    logger.Logger
}

func NewStateWarmer(
	idx *index.MemoryIndex,
	provider *livestate.Provider,
	clusters []domain.Cluster,
	interval time.Duration,
	m *metrics.Metrics,
	log logger.Logger,
) *StateWarmer {
	return &StateWarmer{
		scheduler: gocron.NewScheduler(time.UTC),
		index:     idx,
		provider:  provider,
		clusters:  clusters,
		interval:  interval,
		timeout:   interval,
		metrics:   m,
		logger:    log,
	}
}

// Start schedules the warm-up job; the first run happens immediately.
func (w *StateWarmer) Start() error {
	if _, err := w.scheduler.Every(w.interval).SingletonMode().Do(w.warmAll); err != nil {
		return fmt.Errorf("schedule state warmer: %w", err)
	}
	w.scheduler.StartAsync()
	return nil
}

func (w *StateWarmer) Stop() {
	w.scheduler.Stop()
}

func (w *StateWarmer) warmAll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var errs []error
	for _, c := range w.clusters {
		n, err := w.Warm(ctx, c)
		if err != nil {
			w.logger.Warn("state warm-up failed",
				logger.String("cluster", c.String()),
				logger.Error(err))
			errs = append(errs, err)
			continue
		}
		w.logger.Debug("state warmed",
			logger.String("cluster", c.String()),
			logger.Int("pools", n))
	}
	w.metrics.WarmerRun(errors.Join(errs...))
}

// Warm fetches every resolvable pool of cluster through its source and
// returns the number of pools refreshed.
func (w *StateWarmer) Warm(ctx context.Context, cluster domain.Cluster) (int, error) {
	reg := w.index.Registry(cluster)
	src := w.provider.Source(cluster)
	if reg == nil || src == nil {
		return 0, nil
	}

	addrs := make([]domain.PublicKey, 0, reg.Len())
	for _, d := range reg.All() {
		if d.NotFound {
			continue
		}
		addrs = append(addrs, d.PoolAddress)
	}
	if len(addrs) == 0 {
		return 0, nil
	}

	states, err := src.FetchPools(ctx, addrs)
	if err != nil {
		return 0, err
	}
	return len(states), nil
}
