package livestate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/metrics"
	"github.com/MrSnakeDoc/stakehub/internal/solana"
)

// ErrNotFound is returned when a stake entry account does not exist.
var ErrNotFound = errors.New("stake entry not found")

// Source reads live pool data for one cluster.
type Source interface {
	// FetchPool returns the aggregate state of a pool. A pool account that
	// does not exist yields Found == false and no error.
	FetchPool(ctx context.Context, address domain.PublicKey) (domain.PoolState, error)

	// FetchPools fetches several pools at once, keyed by address.
	FetchPools(ctx context.Context, addresses []domain.PublicKey) (map[domain.PublicKey]domain.PoolState, error)

	// FetchStakeEntry returns a single stake entry by account address.
	FetchStakeEntry(ctx context.Context, address domain.PublicKey) (domain.StakeEntry, error)
}

// RPCSource reads pool accounts from a Solana RPC node.
type RPCSource struct {
	client  solana.RPCClient
	cluster domain.Cluster
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRPCSource creates a source backed by client.
func NewRPCSource(client solana.RPCClient, cluster domain.Cluster, m *metrics.Metrics) *RPCSource {
	return &RPCSource{
		client:  client,
		cluster: cluster,
		metrics: m,
		now:     time.Now,
	}
}

func (s *RPCSource) FetchPool(ctx context.Context, address domain.PublicKey) (domain.PoolState, error) {
	start := s.now()
	info, err := s.client.GetAccountInfo(ctx, address)
	if errors.Is(err, solana.ErrAccountNotFound) {
		s.metrics.StateFetch(s.cluster.String(), s.now().Sub(start), nil)
		return domain.PoolState{Found: false, FetchedAt: s.now()}, nil
	}
	s.metrics.StateFetch(s.cluster.String(), s.now().Sub(start), err)
	if err != nil {
		return domain.PoolState{}, fmt.Errorf("fetch pool %s: %w", address, err)
	}
	return s.decodePool(address, info)
}

func (s *RPCSource) FetchPools(ctx context.Context, addresses []domain.PublicKey) (map[domain.PublicKey]domain.PoolState, error) {
	start := s.now()
	infos, err := s.client.GetMultipleAccounts(ctx, addresses)
	s.metrics.StateFetch(s.cluster.String(), s.now().Sub(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch %d pools: %w", len(addresses), err)
	}

	out := make(map[domain.PublicKey]domain.PoolState, len(addresses))
	for i, info := range infos {
		addr := addresses[i]
		if info == nil {
			out[addr] = domain.PoolState{Found: false, FetchedAt: s.now()}
			continue
		}
		state, err := s.decodePool(addr, info)
		if err != nil {
			return nil, err
		}
		out[addr] = state
	}
	return out, nil
}

func (s *RPCSource) decodePool(address domain.PublicKey, info *solana.AccountInfo) (domain.PoolState, error) {
	if info.Owner != solana.StakePoolProgramID {
		return domain.PoolState{}, fmt.Errorf("pool %s is owned by %s, not the stake pool program", address, info.Owner)
	}
	pool, err := solana.DecodeStakePool(info.Data)
	if err != nil {
		return domain.PoolState{}, fmt.Errorf("pool %s: %w", address, err)
	}
	return domain.PoolState{
		TotalStaked: uint64(pool.TotalStaked),
		Found:       true,
		FetchedAt:   s.now(),
	}, nil
}

func (s *RPCSource) FetchStakeEntry(ctx context.Context, address domain.PublicKey) (domain.StakeEntry, error) {
	info, err := s.client.GetAccountInfo(ctx, address)
	if errors.Is(err, solana.ErrAccountNotFound) {
		return domain.StakeEntry{}, ErrNotFound
	}
	if err != nil {
		return domain.StakeEntry{}, fmt.Errorf("fetch stake entry %s: %w", address, err)
	}
	if info.Owner != solana.StakePoolProgramID {
		return domain.StakeEntry{}, fmt.Errorf("stake entry %s is owned by %s", address, info.Owner)
	}
	rec, err := solana.DecodeStakeEntry(info.Data)
	if err != nil {
		return domain.StakeEntry{}, fmt.Errorf("stake entry %s: %w", address, err)
	}
	return rec.ToDomain(address), nil
}
