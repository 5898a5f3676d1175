// Package metrics provides Prometheus instrumentation for credence. All
// methods are safe on a nil *Metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/credence/internal/model"
)

// Metrics holds the collectors registered for one process
type Metrics struct {
	registry *prometheus.Registry

	// Live link checks by outcome and HTTP method
	LinkChecks *prometheus.CounterVec

	// Link check latency
	LinkCheckLatency prometheus.Histogram

	// Dead best-list links replaced from the pool
	Replacements prometheus.Counter

	// Verdicts by class
	Verdicts *prometheus.CounterVec

	// Confidence levels
	ConfidenceLevels *prometheus.CounterVec

	// Oracle calls by provider and outcome
	OracleRequests *prometheus.CounterVec

	// Oracle latency by provider
	OracleLatency *prometheus.HistogramVec

	// Oracle cache lookups by result
	CacheLookups *prometheus.CounterVec

	// End-to-end check latency
	CheckLatency prometheus.Histogram
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := NewWith(reg)
	m.registry = reg
	return m
}

// NewWith registers all collectors on reg
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LinkChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credence_link_checks_total",
			Help: "Live link checks by result and HTTP method",
		}, []string{"result", "method"}), // result: "live", "dead"

		LinkCheckLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "credence_link_check_duration_seconds",
			Help:    "Duration of a single live link check",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 1.2, 2.5},
		}),

		Replacements: factory.NewCounter(prometheus.CounterOpts{
			Name: "credence_link_replacements_total",
			Help: "Dead best-list links replaced from the source pool",
		}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credence_verdicts_total",
			Help: "Final verdicts by class",
		}, []string{"verdict"}),

		ConfidenceLevels: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credence_confidence_levels_total",
			Help: "Confidence levels of completed checks",
		}, []string{"level"}),

		OracleRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credence_oracle_requests_total",
			Help: "Oracle requests by provider and outcome",
		}, []string{"provider", "outcome"}), // outcome: "ok", "error", "cached"

		OracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credence_oracle_duration_seconds",
			Help:    "Duration of oracle requests by provider",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"provider"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credence_cache_lookups_total",
			Help: "Oracle response cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"

		CheckLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "credence_check_duration_seconds",
			Help:    "Duration of a full claim check including oracle and link checks",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// ObserveLinkCheck records one link check
func (m *Metrics) ObserveLinkCheck(status model.LinkStatus, d time.Duration) {
	if m == nil {
		return
	}
	result := "dead"
	if status.IsLive {
		result = "live"
	}
	method := status.Method
	if method == "" {
		method = "none"
	}
	m.LinkChecks.WithLabelValues(result, method).Inc()
	m.LinkCheckLatency.Observe(d.Seconds())
}

// IncrementReplacements records replaced best-list links
func (m *Metrics) IncrementReplacements(n int) {
	if m != nil && n > 0 {
		m.Replacements.Add(float64(n))
	}
}

// ObserveResult records the verdict and confidence level of a finished check
func (m *Metrics) ObserveResult(result *model.Result, d time.Duration) {
	if m == nil || result == nil {
		return
	}
	m.Verdicts.WithLabelValues(string(result.Verdict)).Inc()
	m.ConfidenceLevels.WithLabelValues(string(result.Confidence.Level)).Inc()
	m.CheckLatency.Observe(d.Seconds())
}

// ObserveOracle records an oracle call
func (m *Metrics) ObserveOracle(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.OracleRequests.WithLabelValues(provider, outcome).Inc()
	if outcome != "cached" {
		m.OracleLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// ObserveCacheLookup records a cache hit or miss
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

// WriteTextfile dumps the collected metrics in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || m.registry == nil {
		return fmt.Errorf("metrics registry not available")
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
