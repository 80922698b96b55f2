// Package metrics counts what an analysis run did to the input data.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for the per-game latency histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on and gathered from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the analysis metrics. Each Manager uses its own registry so
// several can coexist in one process (tests, repeated CLI runs).
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	eventsNormalized prometheus.Counter
	eventsDropped    prometheus.Counter
	eventsExcluded   *prometheus.CounterVec
	gamesAnalyzed    prometheus.Counter
	gamesFailed      prometheus.Counter
	gameDuration     prometheus.Histogram
}

// NewManager creates a Manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "pbp",
		buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)
	m.eventsNormalized = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_normalized_total",
		Help:      "Raw events that became canonical events",
	})
	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_dropped_total",
		Help:      "Raw events dropped as malformed or duplicate",
	})
	m.eventsExcluded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_excluded_total",
		Help:      "Canonical events excluded from score attribution, by reason",
	}, []string{"reason"})
	m.gamesAnalyzed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "games_analyzed_total",
		Help:      "Games analyzed successfully",
	})
	m.gamesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "games_failed_total",
		Help:      "Games that yielded no records because analysis failed",
	})
	m.gameDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "game_analysis_seconds",
		Help:      "Time spent analyzing one game",
		Buckets:   m.buckets,
	})
	return m
}

func (m *Manager) EventsNormalized(n int) { m.eventsNormalized.Add(float64(n)) }

func (m *Manager) EventsDropped(n int) { m.eventsDropped.Add(float64(n)) }

func (m *Manager) EventsExcluded(reason string, n int) {
	m.eventsExcluded.WithLabelValues(reason).Add(float64(n))
}

// GameAnalyzed records one finished game and how long it took.
func (m *Manager) GameAnalyzed(d time.Duration) {
	m.gamesAnalyzed.Inc()
	m.gameDuration.Observe(d.Seconds())
}

func (m *Manager) GameFailed() { m.gamesFailed.Inc() }

// Registry exposes the underlying registry, e.g. for testutil.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// WriteText writes every metric in the Prometheus text exposition format.
func (m *Manager) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
