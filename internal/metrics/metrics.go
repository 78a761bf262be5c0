// Package metrics instruments source fetches and bot runs with Prometheus
// collectors. The collector is injected, never global, so tests can register
// against a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every metric the engine emits.
type Collector struct {
	FetchAttempts *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	BotRuns       *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
}

// NewCollector builds and registers the collectors. Pass a fresh
// prometheus.NewRegistry() in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		FetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalmesh_source_fetch_total",
				Help: "Outbound source fetches by source id and result",
			},
			[]string{"source", "result"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalmesh_source_fetch_duration_seconds",
				Help:    "Duration of outbound source fetches",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"source"},
		),
		BotRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalmesh_bot_runs_total",
				Help: "Bot fetch invocations by bot id and result",
			},
			[]string{"bot", "result"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalmesh_bot_cache_hits_total",
				Help: "Bot cache hits by bot id",
			},
			[]string{"bot"},
		),
	}
	if reg != nil {
		reg.MustRegister(c.FetchAttempts, c.FetchDuration, c.BotRuns, c.CacheHits)
	}
	return c
}

// ObserveFetch records one source fetch outcome.
func (c *Collector) ObserveFetch(source string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.FetchAttempts.WithLabelValues(source, result).Inc()
	c.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveBotRun records one bot invocation outcome.
func (c *Collector) ObserveBotRun(bot string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.BotRuns.WithLabelValues(bot, result).Inc()
}

// ObserveCacheHit records a bot cache hit.
func (c *Collector) ObserveCacheHit(bot string) {
	c.CacheHits.WithLabelValues(bot).Inc()
}
