package domain

import (
	"errors"
	"net"
	"strings"
)

// ErrPoolNotFound is returned when a lookup key matches no resolvable pool.
var ErrPoolNotFound = errors.New("pool not found")

// Registry is the immutable, validated, ordered set of pool descriptors
// for one cluster.
type Registry struct {
	pools     []PoolDescriptor
	byName    map[string]int
	byHost    map[string]int
	byAddress map[PublicKey]int
	warnings  []Problem
}

// NewRegistry validates pools and builds the lookup tables.
// Order is preserved; invalid input yields a *ValidationError.
func NewRegistry(pools []PoolDescriptor) (*Registry, error) {
	warnings, err := Validate(pools)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		pools:     make([]PoolDescriptor, len(pools)),
		byName:    make(map[string]int, len(pools)),
		byHost:    make(map[string]int, len(pools)),
		byAddress: make(map[PublicKey]int, len(pools)),
		warnings:  warnings,
	}
	copy(r.pools, pools)
	for i, d := range r.pools {
		r.byName[d.Name] = i
		r.byAddress[d.PoolAddress] = i
		if d.HostnameOverride != "" {
			r.byHost[d.HostnameOverride] = i
		}
	}
	return r, nil
}

// All returns every descriptor in registry order, including hidden and notFound ones.
func (r *Registry) All() []PoolDescriptor {
	out := make([]PoolDescriptor, len(r.pools))
	copy(out, r.pools)
	return out
}

func (r *Registry) Len() int { return len(r.pools) }

func (r *Registry) Warnings() []Problem { return r.warnings }

// ByName returns the descriptor registered under name, notFound pools included.
func (r *Registry) ByName(name string) (PoolDescriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return PoolDescriptor{}, false
	}
	return r.pools[i], true
}

func (r *Registry) ByAddress(addr PublicKey) (PoolDescriptor, bool) {
	i, ok := r.byAddress[addr]
	if !ok {
		return PoolDescriptor{}, false
	}
	return r.pools[i], true
}

// ByHostname matches a request host against hostname overrides.
// The port is stripped; the comparison is exact and case-sensitive.
func (r *Registry) ByHostname(host string) (PoolDescriptor, bool) {
	host = StripPort(host)
	if host == "" {
		return PoolDescriptor{}, false
	}
	i, ok := r.byHost[host]
	if !ok {
		return PoolDescriptor{}, false
	}
	return r.pools[i], true
}

// Find resolves a name or base58 address to a descriptor.
// Hidden pools resolve; notFound pools never do.
func (r *Registry) Find(key string) (PoolDescriptor, error) {
	d, ok := r.ByName(key)
	if !ok {
		if addr, err := ParsePublicKey(key); err == nil {
			d, ok = r.ByAddress(addr)
		}
	}
	if !ok || d.NotFound {
		return PoolDescriptor{}, ErrPoolNotFound
	}
	return d, nil
}

// StripPort removes a trailing ":port" from a Host header value.
func StripPort(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
