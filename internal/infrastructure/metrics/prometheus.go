// Package metrics provides the Prometheus implementation of rating.Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
)

const namespace = "rating"

// PrometheusMetrics implements rating.Metrics. Metrics are registered in the
// registry passed to the constructor, so several instances can coexist in tests.
type PrometheusMetrics struct {
	lookups        *prometheus.CounterVec
	recalculations *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	population     *prometheus.GaugeVec
}

var _ rating.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates the collectors and registers them in reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Rating reads by scope and cache result.",
			},
			[]string{"scope", "result"},
		),
		recalculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recalculations_total",
				Help:      "Full population recalculations by trigger and status.",
			},
			[]string{"trigger", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recalculation_duration_seconds",
				Help:      "Duration of full population recalculations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		population: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "population",
				Help:      "Participants seen by the last recalculation.",
			},
			[]string{"kind"},
		),
	}
}

// RecordLookup implements rating.Metrics.
func (m *PrometheusMetrics) RecordLookup(scope string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(scope, result).Inc()
}

// RecordRecalculation implements rating.Metrics.
func (m *PrometheusMetrics) RecordRecalculation(trigger rating.Trigger, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.recalculations.WithLabelValues(string(trigger), status).Inc()
	m.duration.WithLabelValues(string(trigger)).Observe(duration.Seconds())
}

// SetPopulation implements rating.Metrics.
func (m *PrometheusMetrics) SetPopulation(total, included, excluded int) {
	m.population.WithLabelValues("total").Set(float64(total))
	m.population.WithLabelValues("included").Set(float64(included))
	m.population.WithLabelValues("excluded").Set(float64(excluded))
}
