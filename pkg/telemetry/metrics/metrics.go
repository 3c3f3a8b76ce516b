// Package metrics exposes Prometheus metrics for the custody core:
// registrations, custody events, verification outcomes and the
// admissibility score distribution.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Namespace is the metric name prefix. Default: "custodia".
	Namespace string `yaml:"namespace"`

	// Subsystem is the second metric name segment. Default: "custody".
	Subsystem string `yaml:"subsystem"`
}

// Collector owns all Prometheus metrics for the custody core. A nil
// *Collector is a valid no-op recorder, so callers never need nil checks.
type Collector struct {
	registry *prometheus.Registry

	registrationsTotal *prometheus.CounterVec
	custodyEventsTotal *prometheus.CounterVec
	verificationsTotal *prometheus.CounterVec
	admissibilityScore prometheus.Histogram
}

// NewCollector creates a metrics collector. If registry is nil, a fresh
// Prometheus registry is used.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "custodia"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "custody"
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		registrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "registrations_total",
				Help:      "Total number of evidence registrations by source type and outcome",
			},
			[]string{"source_type", "outcome"},
		),

		custodyEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "events_total",
				Help:      "Total number of custody events appended, by action",
			},
			[]string{"action"},
		),

		verificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "verifications_total",
				Help:      "Total number of integrity verifications by status",
			},
			[]string{"status"},
		),

		admissibilityScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "admissibility_score",
				Help:      "Distribution of computed admissibility scores",
				Buckets:   []float64{10, 25, 40, 50, 60, 75, 90, 100},
			},
		),
	}

	registry.MustRegister(
		c.registrationsTotal,
		c.custodyEventsTotal,
		c.verificationsTotal,
		c.admissibilityScore,
	)

	return c
}

// RecordRegistration counts a registration attempt.
// outcome is "ok", "duplicate", "invalid" or "error".
func (c *Collector) RecordRegistration(sourceType, outcome string) {
	if c == nil {
		return
	}
	c.registrationsTotal.WithLabelValues(sourceType, outcome).Inc()
}

// RecordCustodyEvent counts an appended custody event.
func (c *Collector) RecordCustodyEvent(action string) {
	if c == nil {
		return
	}
	c.custodyEventsTotal.WithLabelValues(action).Inc()
}

// RecordVerification counts a verification by status (INTACT or TAMPERED).
func (c *Collector) RecordVerification(status string) {
	if c == nil {
		return
	}
	c.verificationsTotal.WithLabelValues(status).Inc()
}

// ObserveAdmissibilityScore records a computed admissibility score.
func (c *Collector) ObserveAdmissibilityScore(score int) {
	if c == nil {
		return
	}
	c.admissibilityScore.Observe(float64(score))
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint,
// typically mounted at "/metrics".
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
