package livestate

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
)

const (
	DefaultConcurrency  = 8
	DefaultFetchTimeout = 3 * time.Second
)

// ErrNoSource is returned when no source serves the requested cluster.
var ErrNoSource = errors.New("no live-state source configured")

// Provider maps each cluster to its live-state source.
type Provider struct {
	sources  map[domain.Cluster]Source
	fallback domain.Cluster
}

// NewProvider creates a provider. Lookups for a cluster without a source use
// fallback's source.
func NewProvider(sources map[domain.Cluster]Source, fallback domain.Cluster) *Provider {
	cp := make(map[domain.Cluster]Source, len(sources))
	for c, s := range sources {
		cp[c] = s
	}
	return &Provider{sources: cp, fallback: fallback}
}

// Source returns the source for cluster, or nil if none is configured.
func (p *Provider) Source(cluster domain.Cluster) Source {
	if s, ok := p.sources[cluster]; ok {
		return s
	}
	return p.sources[p.fallback]
}

// Enricher merges registry descriptors with live state for one page view.
type Enricher struct {
	provider     *Provider
	concurrency  int
	fetchTimeout time.Duration
	logger       logger.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithConcurrency bounds the number of in-flight fetches per page.
func WithConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithFetchTimeout bounds each individual fetch.
func WithFetchTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.fetchTimeout = d
		}
	}
}

func NewEnricher(p *Provider, log logger.Logger, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		provider:     p,
		concurrency:  DefaultConcurrency,
		fetchTimeout: DefaultFetchTimeout,
		logger:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns one view per descriptor, in input order. A failed fetch
// leaves that view's State nil; it never fails the page. Cancelling ctx
// stops outstanding fetches.
func (e *Enricher) Enrich(ctx context.Context, cluster domain.Cluster, pools []domain.PoolDescriptor) []domain.PoolView {
	views := make([]domain.PoolView, len(pools))
	for i, d := range pools {
		views[i].Descriptor = d
	}

	src := e.provider.Source(cluster)
	if src == nil || len(pools) == 0 {
		return views
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range pools {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
			defer cancel()

			state, err := src.FetchPool(fctx, pools[i].PoolAddress)
			if err != nil {
				e.logger.Warn("live state unavailable",
					logger.String("pool", pools[i].Name),
					logger.String("cluster", cluster.String()),
					logger.Error(err))
				return nil
			}
			views[i].State = &state
			return nil
		})
	}
	_ = g.Wait()

	return views
}

// EnrichOne is Enrich for a single descriptor.
func (e *Enricher) EnrichOne(ctx context.Context, cluster domain.Cluster, d domain.PoolDescriptor) domain.PoolView {
	return e.Enrich(ctx, cluster, []domain.PoolDescriptor{d})[0]
}

// StakeEntry looks up a stake entry account through the cluster's source.
func (e *Enricher) StakeEntry(ctx context.Context, cluster domain.Cluster, address domain.PublicKey) (domain.StakeEntry, error) {
	src := e.provider.Source(cluster)
	if src == nil {
		return domain.StakeEntry{}, ErrNoSource
	}
	fctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()
	return src.FetchStakeEntry(fctx, address)
}
