// Package observe provides observability integrations for the reactive
// engine: Prometheus metrics and OpenTelemetry tracing, both driven by the
// engine's hook events.
package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ripple-ui/ripple/pkg/ripple"
)

// MetricsConfig configures the Prometheus metrics hooks.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "ripple").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics hooks.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the pass duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "ripple",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics implements ripple.Hooks, translating engine events into
// Prometheus metrics.
//
// Metrics collected:
//   - ripple_signal_writes_total: Counter of signal writes by outcome
//   - ripple_memo_recomputes_total: Counter of memo recomputations
//   - ripple_effect_runs_total: Counter of effect runs
//   - ripple_propagation_passes_total: Counter of propagation passes
//   - ripple_pass_duration_seconds: Histogram of pass duration
//   - ripple_pass_effect_runs: Histogram of effect runs per pass
//   - ripple_active_effects: Gauge of live (created, not disposed) effects
type Metrics struct {
	signalWrites   *prometheus.CounterVec
	memoRecomputes prometheus.Counter
	effectRuns     prometheus.Counter
	passesTotal    prometheus.Counter
	passDuration   prometheus.Histogram
	passRuns       prometheus.Histogram
	activeEffects  prometheus.Gauge
}

// NewMetrics builds and registers the metric set.
//
// Example:
//
//	m := observe.NewMetrics(observe.WithNamespace("myapp"))
//	ripple.SetHooks(m)
//	http.Handle("/metrics", promhttp.Handler())
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	m := &Metrics{
		signalWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Total signal writes by outcome (committed or noop)",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		memoRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "memo_recomputes_total",
			Help:        "Total memo recomputations",
			ConstLabels: config.ConstLabels,
		}),

		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total effect runs",
			ConstLabels: config.ConstLabels,
		}),

		passesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_passes_total",
			Help:        "Total propagation passes executed",
			ConstLabels: config.ConstLabels,
		}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Propagation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		passRuns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_effect_runs",
			Help:        "Number of scheduled nodes processed per pass",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),

		activeEffects: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_effects",
			Help:        "Number of live effects (created and not yet disposed)",
			ConstLabels: config.ConstLabels,
		}),
	}

	// Initialize both outcome series so they exist from the first scrape.
	m.signalWrites.WithLabelValues("committed")
	m.signalWrites.WithLabelValues("noop")

	return m
}

// SignalWrite implements ripple.Hooks.
func (m *Metrics) SignalWrite(id uint64, noop bool) {
	outcome := "committed"
	if noop {
		outcome = "noop"
	}
	m.signalWrites.WithLabelValues(outcome).Inc()
}

// MemoRecompute implements ripple.Hooks.
func (m *Metrics) MemoRecompute(id uint64) {
	m.memoRecomputes.Inc()
}

// EffectCreated implements ripple.Hooks.
func (m *Metrics) EffectCreated(id uint64, name string) {
	m.activeEffects.Inc()
}

// EffectRun implements ripple.Hooks.
func (m *Metrics) EffectRun(id uint64, name string) {
	m.effectRuns.Inc()
}

// EffectDisposed implements ripple.Hooks.
func (m *Metrics) EffectDisposed(id uint64, name string) {
	m.activeEffects.Dec()
}

// PassStart implements ripple.Hooks.
func (m *Metrics) PassStart(pass int) {}

// PassEnd implements ripple.Hooks.
func (m *Metrics) PassEnd(pass int, duration time.Duration, runs int) {
	m.passesTotal.Inc()
	m.passDuration.Observe(duration.Seconds())
	m.passRuns.Observe(float64(runs))
}

var _ ripple.Hooks = (*Metrics)(nil)
