package livestate

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
	"github.com/MrSnakeDoc/stakehub/internal/logger"
	"github.com/MrSnakeDoc/stakehub/internal/solana"
	redisstore "github.com/MrSnakeDoc/stakehub/internal/store/redis"
)

var (
	addrA = domain.MustPublicKey("6qfbKwV8Tu1RsUc7R4U6aXPsvRarUm4JhRyuihSueLvH")
	addrB = domain.MustPublicKey("A3fzMcAvbU4sPfXJfahyjdt3fA5UrvxQZ1VYt32jodrD")
	addrC = domain.MustPublicKey("3NEDUE4qM2cfMJ3FEkuH4XSuRjfQJv3Fx2nEXw8DHKu4")
)

// fakeSource serves fixed states and counts calls.
type fakeSource struct {
	mu      sync.Mutex
	states  map[domain.PublicKey]domain.PoolState
	fail    map[domain.PublicKey]bool
	entries map[domain.PublicKey]domain.StakeEntry
	delay   time.Duration
	calls   atomic.Int32
	active  atomic.Int32
	peak    atomic.Int32
}

func (f *fakeSource) FetchPool(ctx context.Context, address domain.PublicKey) (domain.PoolState, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.PoolState{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[address] {
		return domain.PoolState{}, errors.New("rpc down")
	}
	return f.states[address], nil
}

func (f *fakeSource) FetchPools(ctx context.Context, addresses []domain.PublicKey) (map[domain.PublicKey]domain.PoolState, error) {
	out := make(map[domain.PublicKey]domain.PoolState, len(addresses))
	for _, a := range addresses {
		s, err := f.FetchPool(ctx, a)
		if err != nil {
			return nil, err
		}
		out[a] = s
	}
	return out, nil
}

func (f *fakeSource) FetchStakeEntry(_ context.Context, address domain.PublicKey) (domain.StakeEntry, error) {
	f.calls.Add(1)
	e, ok := f.entries[address]
	if !ok {
		return domain.StakeEntry{}, ErrNotFound
	}
	return e, nil
}

func newFakeSource() *fakeSource {
	now := time.Now()
	return &fakeSource{
		states: map[domain.PublicKey]domain.PoolState{
			addrA: {TotalStaked: 3001, Found: true, FetchedAt: now},
			addrB: {TotalStaked: 10, Found: true, FetchedAt: now},
			addrC: {TotalStaked: 0, Found: false, FetchedAt: now},
		},
		fail:    map[domain.PublicKey]bool{},
		entries: map[domain.PublicKey]domain.StakeEntry{},
	}
}

func descriptors() []domain.PoolDescriptor {
	return []domain.PoolDescriptor{
		{Name: "basc", PoolAddress: addrA, MaxStaked: domain.Int64(6002)},
		{Name: "abducted-basc", PoolAddress: addrB},
		{Name: "basc-ai", PoolAddress: addrC},
	}
}

func TestEnrichKeepsOrderAndMergesState(t *testing.T) {
	src := newFakeSource()
	e := NewEnricher(NewProvider(map[domain.Cluster]Source{domain.ClusterMainnet: src}, domain.ClusterMainnet), logger.NewNop())

	views := e.Enrich(context.Background(), domain.ClusterMainnet, descriptors())
	require.Len(t, views, 3)

	assert.Equal(t, "basc", views[0].Descriptor.Name)
	assert.Equal(t, "abducted-basc", views[1].Descriptor.Name)
	assert.Equal(t, "basc-ai", views[2].Descriptor.Name)

	require.NotNil(t, views[0].State)
	pct, ok := views[0].Percent()
	require.True(t, ok)
	assert.Equal(t, "50", pct.String())

	_, ok = views[2].StakedCount()
	assert.False(t, ok, "missing account must not report a count")
}

func TestEnrichFailureLeavesPlaceholder(t *testing.T) {
	src := newFakeSource()
	src.fail[addrB] = true
	e := NewEnricher(NewProvider(map[domain.Cluster]Source{domain.ClusterMainnet: src}, domain.ClusterMainnet), logger.NewNop())

	views := e.Enrich(context.Background(), domain.ClusterMainnet, descriptors())
	require.Len(t, views, 3)
	assert.NotNil(t, views[0].State)
	assert.Nil(t, views[1].State)
	assert.NotNil(t, views[2].State)
}

func TestEnrichRespectsConcurrencyLimit(t *testing.T) {
	src := newFakeSource()
	src.delay = 20 * time.Millisecond
	e := NewEnricher(
		NewProvider(map[domain.Cluster]Source{domain.ClusterMainnet: src}, domain.ClusterMainnet),
		logger.NewNop(),
		WithConcurrency(2),
	)

	var pools []domain.PoolDescriptor
	for i := 0; i < 6; i++ {
		pools = append(pools, descriptors()...)
	}
	views := e.Enrich(context.Background(), domain.ClusterMainnet, pools)

	assert.Len(t, views, 18)
	assert.LessOrEqual(t, src.peak.Load(), int32(2))
}

func TestEnrichTimeout(t *testing.T) {
	src := newFakeSource()
	src.delay = time.Second
	e := NewEnricher(
		NewProvider(map[domain.Cluster]Source{domain.ClusterMainnet: src}, domain.ClusterMainnet),
		logger.NewNop(),
		WithFetchTimeout(10*time.Millisecond),
	)

	start := time.Now()
	views := e.Enrich(context.Background(), domain.ClusterMainnet, descriptors())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	for _, v := range views {
		assert.Nil(t, v.State)
	}
}

func TestEnrichCancelledContext(t *testing.T) {
	src := newFakeSource()
	e := NewEnricher(NewProvider(map[domain.Cluster]Source{domain.ClusterMainnet: src}, domain.ClusterMainnet), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	views := e.Enrich(ctx, domain.ClusterMainnet, descriptors())
	assert.Len(t, views, 3)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestProviderFallback(t *testing.T) {
	mainnet := newFakeSource()
	devnet := newFakeSource()
	p := NewProvider(map[domain.Cluster]Source{
		domain.ClusterMainnet: mainnet,
		domain.ClusterDevnet:  devnet,
	}, domain.ClusterMainnet)

	assert.Same(t, devnet, p.Source(domain.ClusterDevnet))
	assert.Same(t, mainnet, p.Source(domain.ClusterTestnet))

	empty := NewEnricher(NewProvider(nil, domain.ClusterMainnet), logger.NewNop())
	views := empty.Enrich(context.Background(), domain.ClusterMainnet, descriptors())
	assert.Len(t, views, 3)
	assert.Nil(t, views[0].State)

	_, err := empty.StakeEntry(context.Background(), domain.ClusterMainnet, addrA)
	assert.ErrorIs(t, err, ErrNoSource)
}

// memoryShared is an in-memory SharedStore.
type memoryShared struct {
	mu      sync.Mutex
	states  map[domain.PublicKey]domain.PoolState
	entries map[domain.PublicKey]domain.StakeEntry
	failing bool
}

func newMemoryShared() *memoryShared {
	return &memoryShared{
		states:  map[domain.PublicKey]domain.PoolState{},
		entries: map[domain.PublicKey]domain.StakeEntry{},
	}
}

func (m *memoryShared) GetPoolState(_ context.Context, _ domain.Cluster, address domain.PublicKey) (domain.PoolState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return domain.PoolState{}, errors.New("connection refused")
	}
	s, ok := m.states[address]
	if !ok {
		return domain.PoolState{}, redisstore.ErrCacheMiss
	}
	return s, nil
}

func (m *memoryShared) SavePoolStatesMany(_ context.Context, _ domain.Cluster, states map[domain.PublicKey]domain.PoolState, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("connection refused")
	}
	for k, v := range states {
		m.states[k] = v
	}
	return nil
}

func (m *memoryShared) CacheStakeEntry(_ context.Context, _ domain.Cluster, entry domain.StakeEntry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Address] = entry
	return nil
}

func (m *memoryShared) GetCachedStakeEntry(_ context.Context, _ domain.Cluster, address domain.PublicKey) (domain.StakeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[address]
	if !ok {
		return domain.StakeEntry{}, redisstore.ErrCacheMiss
	}
	return e, nil
}

func TestCachedSourceLocalTier(t *testing.T) {
	local, err := NewLocalCache(time.Minute)
	require.NoError(t, err)

	src := newFakeSource()
	c := NewCachedSource(src, domain.ClusterMainnet, local, nil, time.Minute, nil, logger.NewNop())

	first, err := c.FetchPool(context.Background(), addrA)
	require.NoError(t, err)
	second, err := c.FetchPool(context.Background(), addrA)
	require.NoError(t, err)

	assert.Equal(t, first.TotalStaked, second.TotalStaked)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestFlushLocal(t *testing.T) {
	local, err := NewLocalCache(time.Minute)
	require.NoError(t, err)
	defer local.Close()

	src := newFakeSource()
	devnet := NewCachedSource(src, domain.ClusterDevnet, local, nil, time.Minute, nil, logger.NewNop())
	mainnet := NewCachedSource(src, domain.ClusterMainnet, local, nil, time.Minute, nil, logger.NewNop())

	ctx := context.Background()
	for _, c := range []*CachedSource{devnet, mainnet} {
		_, err := c.FetchPool(ctx, addrA)
		require.NoError(t, err)
	}
	require.Equal(t, int32(2), src.calls.Load())

	n, err := FlushLocal(local, domain.ClusterDevnet)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = mainnet.FetchPool(ctx, addrA)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load(), "mainnet entry should still be cached")

	_, err = devnet.FetchPool(ctx, addrA)
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load(), "devnet entry should be refetched")
}

func TestCachedSourceSharedTier(t *testing.T) {
	shared := newMemoryShared()
	shared.states[addrA] = domain.PoolState{TotalStaked: 77, Found: true, FetchedAt: time.Now()}

	src := newFakeSource()
	c := NewCachedSource(src, domain.ClusterMainnet, nil, shared, time.Minute, nil, logger.NewNop())

	s, err := c.FetchPool(context.Background(), addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), s.TotalStaked)
	assert.Equal(t, int32(0), src.calls.Load())

	_, err = c.FetchPool(context.Background(), addrB)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Contains(t, shared.states, addrB, "fetched state must be written to the shared tier")
}

func TestCachedSourceStaleSharedEntryRefetched(t *testing.T) {
	shared := newMemoryShared()
	shared.states[addrA] = domain.PoolState{TotalStaked: 1, Found: true, FetchedAt: time.Now().Add(-time.Hour)}

	src := newFakeSource()
	c := NewCachedSource(src, domain.ClusterMainnet, nil, shared, time.Minute, nil, logger.NewNop())

	s, err := c.FetchPool(context.Background(), addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(3001), s.TotalStaked)
}

func TestCachedSourceSharedFailureFallsThrough(t *testing.T) {
	shared := newMemoryShared()
	shared.failing = true

	src := newFakeSource()
	c := NewCachedSource(src, domain.ClusterMainnet, nil, shared, time.Minute, nil, logger.NewNop())

	s, err := c.FetchPool(context.Background(), addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(3001), s.TotalStaked)
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	local, err := NewLocalCache(time.Minute)
	require.NoError(t, err)

	src := newFakeSource()
	src.fail[addrA] = true
	c := NewCachedSource(src, domain.ClusterMainnet, local, nil, time.Minute, nil, logger.NewNop())

	_, err = c.FetchPool(context.Background(), addrA)
	require.Error(t, err)

	src.mu.Lock()
	src.fail[addrA] = false
	src.mu.Unlock()

	s, err := c.FetchPool(context.Background(), addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(3001), s.TotalStaked)
}

func TestCachedSourceStakeEntry(t *testing.T) {
	shared := newMemoryShared()
	src := newFakeSource()
	src.entries[addrC] = domain.StakeEntry{Address: addrC, Pool: addrA, Staked: true}
	c := NewCachedSource(src, domain.ClusterMainnet, nil, shared, time.Minute, nil, logger.NewNop())

	e, err := c.FetchStakeEntry(context.Background(), addrC)
	require.NoError(t, err)
	assert.True(t, e.Staked)

	_, err = c.FetchStakeEntry(context.Background(), addrC)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load(), "second lookup should hit the shared tier")

	_, err = c.FetchStakeEntry(context.Background(), addrB)
	assert.ErrorIs(t, err, ErrNotFound)
}

// fakeRPC implements solana.RPCClient over in-memory accounts.
type fakeRPC struct {
	accounts map[domain.PublicKey]*solana.AccountInfo
	err      error
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, address domain.PublicKey) (*solana.AccountInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.accounts[address]
	if !ok {
		return nil, solana.ErrAccountNotFound
	}
	return info, nil
}

func (f *fakeRPC) GetMultipleAccounts(_ context.Context, addresses []domain.PublicKey) ([]*solana.AccountInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*solana.AccountInfo, len(addresses))
	for i, a := range addresses {
		out[i] = f.accounts[a]
	}
	return out, nil
}

func (f *fakeRPC) GetSlot(context.Context) (uint64, error) { return 1, f.err }

// stakePoolAccount encodes a minimal stake pool account.
func stakePoolAccount(totalStaked uint32) []byte {
	buf := []byte{0x79, 0x22, 0xce, 0x15, 0x4f, 0x7f, 0xff, 0x1c}
	buf = append(buf, 255)                         // bump
	buf = binary.LittleEndian.AppendUint64(buf, 1) // identifier
	buf = append(buf, addrB[:]...)                 // authority
	buf = binary.LittleEndian.AppendUint32(buf, 0) // requires creators
	buf = binary.LittleEndian.AppendUint32(buf, 0) // requires collections
	buf = append(buf, 0)                           // requires authorization
	buf = binary.LittleEndian.AppendUint32(buf, 0) // overlay text
	buf = binary.LittleEndian.AppendUint32(buf, 0) // image uri
	buf = append(buf, 0)                           // reset on stake
	buf = binary.LittleEndian.AppendUint32(buf, totalStaked)
	return buf
}

func TestRPCSourceFetchPool(t *testing.T) {
	rpc := &fakeRPC{accounts: map[domain.PublicKey]*solana.AccountInfo{
		addrA: {Owner: solana.StakePoolProgramID, Data: stakePoolAccount(3001)},
		addrB: {Owner: addrC, Data: stakePoolAccount(5)},
	}}
	src := NewRPCSource(rpc, domain.ClusterMainnet, nil)

	s, err := src.FetchPool(context.Background(), addrA)
	require.NoError(t, err)
	assert.True(t, s.Found)
	assert.Equal(t, uint64(3001), s.TotalStaked)

	_, err = src.FetchPool(context.Background(), addrB)
	assert.Error(t, err, "foreign owner must be rejected")

	s, err = src.FetchPool(context.Background(), addrC)
	require.NoError(t, err)
	assert.False(t, s.Found)

	states, err := src.FetchPools(context.Background(), []domain.PublicKey{addrA, addrC})
	require.NoError(t, err)
	assert.True(t, states[addrA].Found)
	assert.False(t, states[addrC].Found)

	rpc.err = errors.New("503")
	_, err = src.FetchPool(context.Background(), addrA)
	assert.Error(t, err)
}

func TestRPCSourceFetchStakeEntryNotFound(t *testing.T) {
	src := NewRPCSource(&fakeRPC{}, domain.ClusterDevnet, nil)
	_, err := src.FetchStakeEntry(context.Background(), addrA)
	assert.ErrorIs(t, err, ErrNotFound)
}
