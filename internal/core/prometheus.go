package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"apogeecore/pkg/domain"
)

// PrometheusRecorder exposes search outcomes as Prometheus collectors. It
// implements MetricsRecorder for operation timings and adds search-specific
// counters and gauges fed by RecordSearch.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	opDuration *prometheus.HistogramVec
	opResults  *prometheus.CounterVec

	evaluations prometheus.Counter
	cacheHits   prometheus.Counter
	candidates  prometheus.Counter
	rejections  *prometheus.CounterVec
	bestApogee  prometheus.Gauge
	bestImpulse prometheus.Gauge
}

// NewPrometheusRecorder constructs a recorder with its own registry so tests
// and embedded deployments never fight over the default global one.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apogee_operation_duration_seconds",
			Help:    "Duration of service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		opResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apogee_operation_results_total",
			Help: "Service operation outcomes by status.",
		}, []string{"operation", "status"}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "apogee_search_evaluations_total",
			Help: "Grid points actually simulated.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "apogee_search_cache_hits_total",
			Help: "Grid points served from the memoization cache.",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "apogee_search_candidates_total",
			Help: "End-to-end evaluated candidates.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apogee_search_rejections_total",
			Help: "Rejected grid points and candidates by reason.",
		}, []string{"reason"}),
		bestApogee: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "apogee_search_best_apogee_meters",
			Help: "Predicted apogee of the top-ranked candidate in the last search.",
		}),
		bestImpulse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "apogee_search_best_total_impulse_newton_seconds",
			Help: "Total impulse of the top-ranked candidate in the last search.",
		}),
	}
	r.registry.MustRegister(
		r.opDuration, r.opResults,
		r.evaluations, r.cacheHits, r.candidates, r.rejections,
		r.bestApogee, r.bestImpulse,
	)
	return r
}

// Registry returns the backing registry for HTTP exposition.
func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }

// Observe implements MetricsRecorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
	r.opResults.WithLabelValues(operation, status).Inc()
}

// RecordSearch folds one search outcome into the collectors.
func (r *PrometheusRecorder) RecordSearch(summary domain.SearchSummary, ranked []domain.Candidate, rejections []domain.Rejection) {
	r.evaluations.Add(float64(summary.Evaluated))
	r.cacheHits.Add(float64(summary.CacheHits))
	r.candidates.Add(float64(len(ranked)))
	for _, rej := range rejections {
		r.rejections.WithLabelValues(string(rej.Reason)).Inc()
	}
	if len(ranked) > 0 {
		r.bestApogee.Set(ranked[0].Apogee.Apogee)
		r.bestImpulse.Set(ranked[0].Metrics.TotalImpulse)
	}
}
