// Package metrics exposes Prometheus collectors for the evaluation
// engine, adapted from the teacher's policy/metrics.go: a duration
// histogram and a status counter, both registered via promauto so an
// embedding process gets them for free just by importing this package.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "guard",
		Subsystem: "engine",
		Name:      "evaluation_duration_seconds",
		Help:      "Time to evaluate a rules file against one document.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	evaluationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guard",
		Subsystem: "engine",
		Name:      "evaluations_total",
		Help:      "Count of rule evaluations by final status.",
	}, []string{"status"})
)

// RecordEvaluation records one rule's evaluation outcome: how long it
// took and what status it produced.
func RecordEvaluation(duration time.Duration, status string) {
	evaluationDuration.WithLabelValues(status).Observe(duration.Seconds())
	evaluationTotal.WithLabelValues(status).Inc()
}
