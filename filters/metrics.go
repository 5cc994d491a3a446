package filters

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/compass"
)

// Metric label values for the status label.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// MetricsConfig configures the Prometheus filter.
type MetricsConfig struct {
	// Registry defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Namespace defaults to "compass".
	Namespace string

	// Buckets default to prometheus.DefBuckets.
	Buckets []float64
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithRegistry sets the registerer the metrics are created in.
func WithRegistry(r prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = r
	}
}

// WithNamespace sets the metrics namespace.
func WithNamespace(ns string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = ns
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the action duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// MetricsFilter records dispatch metrics. Labels use the route template,
// never the fragment, to keep cardinality bounded. Each dispatch is counted
// once in navigations_total, as success when it got through this filter's
// executed hook and as error otherwise.
type MetricsFilter struct {
	navigations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	exceptions  *prometheus.CounterVec
}

type metricsKey struct{ f *MetricsFilter }

// dispatchMetrics is the state of one dispatch.
type dispatchMetrics struct {
	start   time.Time
	counted bool
}

// NewMetrics creates the metrics and registers them.
// It panics if the metrics are already registered in the registry.
//
// Metrics:
//   - compass_navigations_total{route,status}
//   - compass_action_duration_seconds{route}
//   - compass_exceptions_total{route,stage}
func NewMetrics(opts ...MetricsOption) *MetricsFilter {
	cfg := MetricsConfig{
		Registry:  prometheus.DefaultRegisterer,
		Namespace: "compass",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)
	return &MetricsFilter{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "navigations_total",
			Help:        "Dispatched navigations by route and outcome.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"route", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "action_duration_seconds",
			Help:        "Time from executing to executed filters.",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"route"}),

		exceptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "exceptions_total",
			Help:        "Action exceptions by route and pipeline stage.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"route", "stage"}),
	}
}

func (f *MetricsFilter) OnActionExecuting(_ context.Context, e *compass.Event) error {
	stash(e.Context, metricsKey{f}, &dispatchMetrics{start: time.Now()})
	return nil
}

func (f *MetricsFilter) OnActionExecuted(_ context.Context, e *compass.Event) error {
	route := e.Context.Request.Route()
	d, ok := lookup[*dispatchMetrics](e.Context, metricsKey{f})
	if !ok {
		d = &dispatchMetrics{}
		stash(e.Context, metricsKey{f}, d)
	}
	if !d.start.IsZero() {
		f.duration.WithLabelValues(route).Observe(time.Since(d.start).Seconds())
	}
	d.counted = true
	f.navigations.WithLabelValues(route, statusSuccess).Inc()
	return nil
}

func (f *MetricsFilter) OnException(_ context.Context, e *compass.Event) error {
	route := e.Context.Request.Route()

	// A failure after our executed hook follows a counted success.
	if d, ok := lookup[*dispatchMetrics](e.Context, metricsKey{f}); !ok || !d.counted {
		f.navigations.WithLabelValues(route, statusError).Inc()
	}
	f.exceptions.WithLabelValues(route, e.Stage.String()).Inc()
	return nil
}
