package livestate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/metrics"
	redisstore "github.com/MrSnakeDoc/stakehub/internal/store/redis"
)

const (
	tierLocal  = "local"
	tierShared = "shared"
)

// SharedStore is the cross-replica cache tier.
type SharedStore interface {
	GetPoolState(ctx context.Context, cluster domain.Cluster, address domain.PublicKey) (domain.PoolState, error)
	SavePoolStatesMany(ctx context.Context, cluster domain.Cluster, states map[domain.PublicKey]domain.PoolState, ttl time.Duration) error
	CacheStakeEntry(ctx context.Context, cluster domain.Cluster, entry domain.StakeEntry, ttl time.Duration) error
	GetCachedStakeEntry(ctx context.Context, cluster domain.Cluster, address domain.PublicKey) (domain.StakeEntry, error)
}

// NewLocalCache creates the in-process cache tier. Entries become eligible
// for eviction after ttl.
func NewLocalCache(ttl time.Duration) (*bigcache.BigCache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cfg.HardMaxCacheSize = 64 // MB
	cfg.Verbose = false
	return bigcache.New(context.Background(), cfg)
}

// FlushLocal drops every local-tier pool state of cluster and returns the
// number of entries removed.
func FlushLocal(local *bigcache.BigCache, cluster domain.Cluster) (int, error) {
	prefix := cluster.String() + ":"
	var keys []string
	it := local.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			return 0, err
		}
		if strings.HasPrefix(e.Key(), prefix) {
			keys = append(keys, e.Key())
		}
	}

	n := 0
	for _, k := range keys {
		switch err := local.Delete(k); {
		case err == nil:
			n++
		case errors.Is(err, bigcache.ErrEntryNotFound):
		default:
			return n, err
		}
	}
	return n, nil
}

// CachedSource fronts a Source with a local bigcache tier and an optional
// shared tier. Only successful fetches are cached; errors always reach the
// caller.
type CachedSource struct {
	next     Source
	cluster  domain.Cluster
	local    *bigcache.BigCache
	shared   SharedStore
	ttl      time.Duration
	entryTTL time.Duration
	metrics  *metrics.Metrics
	logger   logger.Logger
	now      func() time.Time
}

// NewCachedSource wraps next. local and shared may each be nil.
func NewCachedSource(next Source, cluster domain.Cluster, local *bigcache.BigCache, shared SharedStore, ttl time.Duration, m *metrics.Metrics, log logger.Logger) *CachedSource {
	return &CachedSource{
		next:     next,
		cluster:  cluster,
		local:    local,
		shared:   shared,
		ttl:      ttl,
		entryTTL: ttl / 2,
		metrics:  m,
		logger:   log,
		now:      time.Now,
	}
}

// localKey is "<cluster>:<address>"; FlushLocal relies on the prefix.
func (c *CachedSource) localKey(address domain.PublicKey) string {
	return c.cluster.String() + ":" + address.String()
}

func (c *CachedSource) fresh(s domain.PoolState) bool {
	return c.now().Sub(s.FetchedAt) < c.ttl
}

func (c *CachedSource) FetchPool(ctx context.Context, address domain.PublicKey) (domain.PoolState, error) {
	if s, ok := c.getLocal(address); ok {
		return s, nil
	}

	if c.shared != nil {
		s, err := c.shared.GetPoolState(ctx, c.cluster, address)
		switch {
		case err == nil && c.fresh(s):
			c.metrics.CacheLookup(tierShared, true)
			c.setLocal(address, s)
			return s, nil
		case err != nil && !errors.Is(err, redisstore.ErrCacheMiss):
			c.logger.Debug("shared state cache read failed",
				logger.Stringer("pool", address),
				logger.Error(err))
		}
		c.metrics.CacheLookup(tierShared, false)
	}

	s, err := c.next.FetchPool(ctx, address)
	if err != nil {
		return domain.PoolState{}, err
	}
	c.store(ctx, map[domain.PublicKey]domain.PoolState{address: s})
	return s, nil
}

// FetchPools always reads through to the next source and refreshes both
// tiers. Used by the warmer.
func (c *CachedSource) FetchPools(ctx context.Context, addresses []domain.PublicKey) (map[domain.PublicKey]domain.PoolState, error) {
	states, err := c.next.FetchPools(ctx, addresses)
	if err != nil {
		return nil, err
	}
	c.store(ctx, states)
	return states, nil
}

func (c *CachedSource) FetchStakeEntry(ctx context.Context, address domain.PublicKey) (domain.StakeEntry, error) {
	if c.shared != nil {
		if e, err := c.shared.GetCachedStakeEntry(ctx, c.cluster, address); err == nil {
			c.metrics.CacheLookup(tierShared, true)
			return e, nil
		}
		c.metrics.CacheLookup(tierShared, false)
	}

	e, err := c.next.FetchStakeEntry(ctx, address)
	if err != nil {
		return domain.StakeEntry{}, err
	}
	if c.shared != nil {
		if err := c.shared.CacheStakeEntry(ctx, c.cluster, e, c.entryTTL); err != nil {
			c.logger.Debug("shared stake entry cache write failed", logger.Error(err))
		}
	}
	return e, nil
}

func (c *CachedSource) getLocal(address domain.PublicKey) (domain.PoolState, bool) {
	if c.local == nil {
		return domain.PoolState{}, false
	}
	raw, err := c.local.Get(c.localKey(address))
	if err != nil {
		c.metrics.CacheLookup(tierLocal, false)
		return domain.PoolState{}, false
	}
	var s domain.PoolState
	if err := json.Unmarshal(raw, &s); err != nil || !c.fresh(s) {
		c.metrics.CacheLookup(tierLocal, false)
		return domain.PoolState{}, false
	}
	c.metrics.CacheLookup(tierLocal, true)
	return s, true
}

func (c *CachedSource) setLocal(address domain.PublicKey, s domain.PoolState) {
	if c.local == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.local.Set(c.localKey(address), raw); err != nil {
		c.logger.Debug("local state cache write failed", logger.Error(err))
	}
}

func (c *CachedSource) store(ctx context.Context, states map[domain.PublicKey]domain.PoolState) {
	for addr, s := range states {
		c.setLocal(addr, s)
	}
	if c.shared == nil {
		return
	}
	// A failing shared tier never fails the request.
	if err := c.shared.SavePoolStatesMany(ctx, c.cluster, states, c.ttl); err != nil {
		c.logger.Warn("shared state cache write failed",
			logger.String("cluster", c.cluster.String()),
			logger.Error(err))
	}
}
