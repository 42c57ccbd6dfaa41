package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.StateFetch("devnet", 20*time.Millisecond, nil)
	m.StateFetch("devnet", time.Second, errors.New("boom"))
	m.CacheLookup("local", true)
	m.CacheLookup("local", false)
	m.CacheLookup("local", false)
	m.SetRegistryPools("mainnet-beta", 7, 2)
	m.RegistryReload(nil)
	m.PageRender("pool")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateFetches.WithLabelValues("devnet", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateFetches.WithLabelValues("devnet", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("local", "miss")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.registryPools.WithLabelValues("mainnet-beta", "listed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.registryPools.WithLabelValues("mainnet-beta", "hidden")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.StateFetch("devnet", time.Second, nil)
		m.CacheLookup("shared", true)
		m.SetRegistryPools("devnet", 1, 1)
		m.RegistryReload(errors.New("x"))
		m.PageRender("home")
		m.WarmerRun(nil)
	})
}
