package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixState is the prefix for live pool state keys
	KeyPrefixState = "stakehub:state:"
	// KeyPrefixEntry is the prefix for cached stake entry keys
	KeyPrefixEntry = "stakehub:entry:"
)

// StateKey returns the Redis key for a pool's live state on a cluster
func StateKey(cluster, address string) string {
	return KeyPrefixState + cluster + ":" + address
}

// StakeEntryKey returns the Redis key for a cached stake entry
func StakeEntryKey(cluster, address string) string {
	return KeyPrefixEntry + cluster + ":" + address
}

// ClusterStatePattern matches every state key of a cluster
func ClusterStatePattern(cluster string) string {
	return KeyPrefixState + cluster + ":*"
}

// ExtractStateAddress extracts the pool address from a state key
func ExtractStateAddress(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixState) {
		return "", fmt.Errorf("invalid state key: %s", key)
	}
	rest := key[len(KeyPrefixState):]
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 || i == len(rest)-1 {
		return "", fmt.Errorf("invalid state key: %s", key)
	}
	return rest[i+1:], nil
}
