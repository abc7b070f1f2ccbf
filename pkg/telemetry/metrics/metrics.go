// Package metrics exposes Prometheus metrics for the interception pipeline:
// decision counters, stage latency histograms, and classification cache
// hit/miss counters.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains metrics configuration.
type Config struct {
	// Namespace is the metric name prefix. Default: "firebreak".
	Namespace string
}

// Collector owns the Prometheus registry and all pipeline metrics.
type Collector struct {
	registry *prometheus.Registry

	// Requests by decision outcome and matched rule.
	requestsTotal *prometheus.CounterVec

	// Policy evaluation duration.
	evaluationDuration prometheus.Histogram

	// Classification duration by source ("cache" or "oracle").
	classificationDuration *prometheus.HistogramVec

	// Cache lookups by outcome ("hit" or "miss").
	cacheLookupsTotal *prometheus.CounterVec

	// Classification failures collapsed to the sentinel result.
	classificationFailuresTotal prometheus.Counter

	// Downstream forwarding failures after an allow decision.
	forwardingFailuresTotal prometheus.Counter

	// Alert events fanned out, by target.
	alertsTotal *prometheus.CounterVec
}

// NewCollector creates and registers all pipeline metrics. A nil registry
// allocates a fresh one.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "firebreak"
	}

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total requests through the interception pipeline",
			},
			[]string{"decision", "rule_id"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of policy evaluation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
		),

		classificationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "classification_duration_seconds",
				Help:      "Duration of intent classification in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),

		cacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classification_cache_lookups_total",
				Help:      "Classification cache lookups by outcome",
			},
			[]string{"outcome"},
		),

		classificationFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classification_failures_total",
				Help:      "Classifications that collapsed to the sentinel result",
			},
		),

		forwardingFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forwarding_failures_total",
				Help:      "Downstream model call failures after an allow decision",
			},
		),

		alertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_total",
				Help:      "Alert events fanned out, by target",
			},
			[]string{"target"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.evaluationDuration,
		c.classificationDuration,
		c.cacheLookupsTotal,
		c.classificationFailuresTotal,
		c.forwardingFailuresTotal,
		c.alertsTotal,
	)

	return c
}

// RecordDecision records one completed pipeline run.
func (c *Collector) RecordDecision(decision, ruleID string, evalDuration time.Duration) {
	c.requestsTotal.WithLabelValues(decision, ruleID).Inc()
	c.evaluationDuration.Observe(evalDuration.Seconds())
}

// RecordClassification records one classification with its source
// ("cache" or "oracle") and whether it failed to produce a category.
func (c *Collector) RecordClassification(source string, d time.Duration, failed bool) {
	c.classificationDuration.WithLabelValues(source).Observe(d.Seconds())
	if source == "cache" {
		c.cacheLookupsTotal.WithLabelValues("hit").Inc()
	} else {
		c.cacheLookupsTotal.WithLabelValues("miss").Inc()
	}
	if failed {
		c.classificationFailuresTotal.Inc()
	}
}

// RecordForwardingFailure records a downstream call failure after an allow.
func (c *Collector) RecordForwardingFailure() {
	c.forwardingFailuresTotal.Inc()
}

// RecordAlert records one alert fan-out event.
func (c *Collector) RecordAlert(target string) {
	c.alertsTotal.WithLabelValues(target).Inc()
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
