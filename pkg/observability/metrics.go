package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

// Metrics holds the service's Prometheus collectors. All helpers are nil-safe
// so components can run without metrics wired (tests, Lambda cold paths).
type Metrics struct {
	registry *prometheus.Registry

	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheJoins     prometheus.Counter
	ProviderErrors prometheus.Counter

	CommandsExecuted *prometheus.CounterVec
	LayoutRuns       *prometheus.CounterVec
	LayoutDuration   prometheus.Histogram
}

// NewMetrics creates and registers all collectors on a private registry
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		registry.MustRegister(c)
		return c
	}

	m := &Metrics{
		registry:       registry,
		CacheHits:      factory("provider_cache_hits_total", "Cache entries served without a provider call"),
		CacheMisses:    factory("provider_cache_misses_total", "Identities that required a provider fetch"),
		CacheJoins:     factory("provider_cache_joins_total", "Callers attached to an already in-flight fetch"),
		ProviderErrors: factory("provider_errors_total", "Failed provider fetches"),
	}

	m.CommandsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_executed_total",
		Help:      "Commands executed through the history engine",
	}, []string{"command"})
	registry.MustRegister(m.CommandsExecuted)

	m.LayoutRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "layout_runs_total",
		Help:      "Layout passes by outcome",
	}, []string{"outcome"})
	registry.MustRegister(m.LayoutRuns)

	m.LayoutDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_duration_seconds",
		Help:      "Wall time of successful layout passes",
		Buckets:   prometheus.DefBuckets,
	})
	registry.MustRegister(m.LayoutDuration)

	return m
}

// Handler exposes the registry for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncCacheHit increments the cache hit counter
func (m *Metrics) IncCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// IncCacheMiss increments the cache miss counter
func (m *Metrics) IncCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// IncCacheJoin increments the in-flight join counter
func (m *Metrics) IncCacheJoin() {
	if m != nil {
		m.CacheJoins.Inc()
	}
}

// IncProviderError increments the provider failure counter
func (m *Metrics) IncProviderError() {
	if m != nil {
		m.ProviderErrors.Inc()
	}
}

// IncCommand counts one executed command by name
func (m *Metrics) IncCommand(name string) {
	if m != nil {
		m.CommandsExecuted.WithLabelValues(name).Inc()
	}
}

// ObserveLayout records one layout pass
func (m *Metrics) ObserveLayout(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.LayoutRuns.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.LayoutDuration.Observe(seconds)
	}
}
