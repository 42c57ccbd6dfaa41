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

// CacheStakeEntry stores a decoded stake entry under its account address
func (s *Store) CacheStakeEntry(ctx context.Context, cluster domain.Cluster, entry domain.StakeEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal stake entry: %w", err)
	}
	key := StakeEntryKey(cluster.String(), entry.Address.String())
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stake entry: %w", err)
	}
	return nil
}

// GetCachedStakeEntry retrieves a cached stake entry. Returns ErrCacheMiss if absent.
func (s *Store) GetCachedStakeEntry(ctx context.Context, cluster domain.Cluster, address domain.PublicKey) (domain.StakeEntry, error) {
	data, err := s.client.Get(ctx, StakeEntryKey(cluster.String(), address.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.StakeEntry{}, ErrCacheMiss
		}
		return domain.StakeEntry{}, fmt.Errorf("failed to get cached stake entry: %w", err)
	}
	var entry domain.StakeEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.StakeEntry{}, fmt.Errorf("failed to unmarshal stake entry: %w", err)
	}
	return entry, nil
}

// FlushCluster removes every cached pool state of a cluster and returns the
// addresses that were flushed
func (s *Store) FlushCluster(ctx context.Context, cluster domain.Cluster) ([]string, error) {
	var flushed []string
	iter := s.client.Scan(ctx, 0, ClusterStatePattern(cluster.String()), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return flushed, fmt.Errorf("failed to delete state key: %w", err)
		}
		if addr, err := ExtractStateAddress(key); err == nil {
			flushed = append(flushed, addr)
		}
	}
	if err := iter.Err(); err != nil {
		return flushed, fmt.Errorf("failed to flush cluster state: %w", err)
	}
	return flushed, nil
}
