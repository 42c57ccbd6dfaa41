package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the Prometheus metrics for the server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registryPools   *prometheus.GaugeVec
	registryReloads *prometheus.CounterVec
	stateFetches    *prometheus.CounterVec
	stateFetchTime  *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	pageRenders     *prometheus.CounterVec
	warmerRuns      *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registryPools: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakehub_registry_pools",
			Help: "Number of pools in the active registry, labeled by cluster and visibility.",
		}, []string{"cluster", "visibility"}),
		registryReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakehub_registry_reloads_total",
			Help: "Registry reload attempts, labeled by result.",
		}, []string{"result"}),
		stateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakehub_state_fetches_total",
			Help: "Live pool state fetches, labeled by cluster and result.",
		}, []string{"cluster", "result"}),
		stateFetchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stakehub_state_fetch_duration_seconds",
			Help:    "Time taken to fetch live pool state from the RPC node.",
			Buckets: prometheus.DefBuckets,
		}, []string{"cluster"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakehub_state_cache_lookups_total",
			Help: "Live state cache lookups, labeled by tier and result.",
		}, []string{"tier", "result"}),
		pageRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakehub_page_renders_total",
			Help: "Rendered pages, labeled by resolution outcome.",
		}, []string{"outcome"}),
		warmerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakehub_state_warmer_runs_total",
			Help: "State warmer runs, labeled by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.registryPools,
		m.registryReloads,
		m.stateFetches,
		m.stateFetchTime,
		m.cacheLookups,
		m.pageRenders,
		m.warmerRuns,
	)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// SetRegistryPools records the size of a cluster's registry.
func (m *Metrics) SetRegistryPools(cluster string, listed, hidden int) {
	if m == nil {
		return
	}
	m.registryPools.WithLabelValues(cluster, "listed").Set(float64(listed))
	m.registryPools.WithLabelValues(cluster, "hidden").Set(float64(hidden))
}

func (m *Metrics) RegistryReload(err error) {
	if m == nil {
		return
	}
	m.registryReloads.WithLabelValues(result(err)).Inc()
}

// StateFetch records one RPC fetch and its duration.
func (m *Metrics) StateFetch(cluster string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.stateFetches.WithLabelValues(cluster, result(err)).Inc()
	m.stateFetchTime.WithLabelValues(cluster).Observe(took.Seconds())
}

// CacheLookup records a hit or miss on the local or shared cache tier.
func (m *Metrics) CacheLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	r := "miss"
	if hit {
		r = "hit"
	}
	m.cacheLookups.WithLabelValues(tier, r).Inc()
}

func (m *Metrics) PageRender(outcome string) {
	if m == nil {
		return
	}
	m.pageRenders.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WarmerRun(err error) {
	if m == nil {
		return
	}
	m.warmerRuns.WithLabelValues(result(err)).Inc()
}
