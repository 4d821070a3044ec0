// Package metrics holds the Prometheus collectors alembic exports on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alembic"

// Combination outcomes.
const (
	OutcomeResolved = "resolved"
	OutcomeRejected = "rejected"
	OutcomeBusy     = "busy"
	OutcomeStale    = "stale"
)

// Recorder owns a private registry and the alembic collectors. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	combinations  *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	generatorTime *prometheus.HistogramVec
	loadingTokens prometheus.Gauge
}

// New creates a Recorder with its collectors registered alongside the Go
// runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		combinations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workspace",
			Name:      "combinations_total",
			Help:      "Combination attempts by outcome",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recipe_cache",
			Name:      "lookups_total",
			Help:      "Recipe cache lookups by result (hit, miss)",
		}, []string{"result"}),
		generatorTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "duration_seconds",
			Help:      "Generator call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"status"}),
		loadingTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "workspace",
			Name:      "loading_tokens",
			Help:      "Loading placeholders currently on the workspace",
		}),
	}

	r.registry.MustRegister(
		r.combinations,
		r.cacheLookups,
		r.generatorTime,
		r.loadingTokens,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Combination counts one combination attempt.
func (r *Recorder) Combination(outcome string) {
	if r == nil {
		return
	}
	r.combinations.WithLabelValues(outcome).Inc()
}

// CacheLookup counts a recipe cache hit or miss.
func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// GeneratorCall observes the latency of one generator call.
func (r *Recorder) GeneratorCall(d time.Duration, err error) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.generatorTime.WithLabelValues(status).Observe(d.Seconds())
}

// LoadingTokens sets the number of loading placeholders.
func (r *Recorder) LoadingTokens(n int) {
	if r == nil {
		return
	}
	r.loadingTokens.Set(float64(n))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
