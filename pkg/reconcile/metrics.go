package reconcile

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/attrsync/internal/errors"
)

// MetricsConfig configures the reconciler's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "attrsync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for update duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the metrics namespace.
func WithMetricsNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithMetricsSubsystem sets the metrics subsystem.
func WithMetricsSubsystem(subsystem string) MetricsOption {
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

// WithBuckets sets the update duration histogram buckets.
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

// NewMetricsConfig returns the default configuration with opts applied.
// Other packages registering attrsync metrics use it to share the options.
func NewMetricsConfig(opts ...MetricsOption) MetricsConfig {
	config := MetricsConfig{
		Namespace: "attrsync",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// Metrics holds reconciler counters. One Metrics is shared by every
// Reconciler in a process; a nil *Metrics records nothing.
type Metrics struct {
	mutations      *prometheus.CounterVec
	suppressed     *prometheus.CounterVec
	updateErrors   *prometheus.CounterVec
	updateDuration prometheus.Histogram
}

// NewMetrics registers the reconciler metrics:
//   - attrsync_mutations_total{strategy,op}: host mutation calls
//   - attrsync_suppressed_total{strategy}: updates skipped on focused controls
//   - attrsync_update_errors_total{type}: rejected updates by error category
//   - attrsync_update_duration_seconds: Update latency
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := NewMetricsConfig(opts...)
	factory := promauto.With(config.Registry)

	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of host mutation calls made by reconcilers",
			ConstLabels: config.ConstLabels,
		}, []string{"strategy", "op"}),

		suppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "suppressed_total",
			Help:        "Total number of attribute updates suppressed because the control was focused",
			ConstLabels: config.ConstLabels,
		}, []string{"strategy"}),

		updateErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_errors_total",
			Help:        "Total number of rejected updates by error category",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		updateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_duration_seconds",
			Help:        "Duration of reconciler Update calls in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

func (m *Metrics) recordMutation(k Kind, o op) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(k.String(), string(o)).Inc()
}

func (m *Metrics) recordSuppressed(k Kind) {
	if m == nil {
		return
	}
	m.suppressed.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) recordUpdate(start time.Time, err error) {
	if m == nil {
		return
	}
	m.updateDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		category := string(errors.CategoryOf(err))
		if category == "" {
			category = "unknown"
		}
		m.updateErrors.WithLabelValues(category).Inc()
	}
}
