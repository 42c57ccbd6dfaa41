package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

const (
	// DefaultStateTTL is the default TTL for live pool state entries
	DefaultStateTTL = 60 * time.Second
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// Store is the shared live-state tier used by every replica
type Store struct {
	client redis.UniversalClient
}

// NewStore creates a new Redis store
func NewStore(client redis.UniversalClient) *Store {
	return &Store{
		client: client,
	}
}

// GetPoolState retrieves a pool's live state. Returns ErrCacheMiss if absent.
func (s *Store) GetPoolState(ctx context.Context, cluster domain.Cluster, address domain.PublicKey) (domain.PoolState, error) {
	key := StateKey(cluster.String(), address.String())
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PoolState{}, ErrCacheMiss
		}
		return domain.PoolState{}, fmt.Errorf("failed to get pool state: %w", err)
	}

	var state domain.PoolState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.PoolState{}, fmt.Errorf("failed to unmarshal pool state: %w", err)
	}
	return state, nil
}

// SavePoolStatesMany stores multiple pool states (bulk operation)
func (s *Store) SavePoolStatesMany(ctx context.Context, cluster domain.Cluster, states map[domain.PublicKey]domain.PoolState, ttl time.Duration) error {
	if len(states) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()

	for addr, state := range states {
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal pool state %s: %w", addr, err)
		}
		pipe.Set(ctx, StateKey(cluster.String(), addr.String()), data, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save pool states: %w", err)
	}
	return nil
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
