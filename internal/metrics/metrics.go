package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysisOutcomesTotal counts pipeline runs by result ("success" or an error code).
	AnalysisOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "artifact_scout",
		Subsystem: "pipeline",
		Name:      "outcomes_total",
		Help:      "Total number of analysis pipeline runs, labeled by result.",
	}, []string{"result"})

	// ClassifierDurationSeconds is the time spent waiting on the vision model.
	ClassifierDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "artifact_scout",
		Subsystem: "classifier",
		Name:      "request_duration_seconds",
		Help:      "Latency of vision model calls, including failed ones.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	// TeamCacheLookupsTotal counts resolver cache lookups by result (hit, miss, error).
	TeamCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "artifact_scout",
		Subsystem: "resolver",
		Name:      "cache_lookups_total",
		Help:      "Team cache lookups, labeled by result.",
	}, []string{"result"})

	// AuditWritesTotal counts audit log writes by result (ok, error).
	AuditWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "artifact_scout",
		Subsystem: "audit",
		Name:      "writes_total",
		Help:      "Audit log writes, labeled by result.",
	}, []string{"result"})

	// PreprocessDurationSeconds is the time spent enhancing or compressing an image.
	PreprocessDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "artifact_scout",
		Subsystem: "preprocess",
		Name:      "duration_seconds",
		Help:      "Image pre-processing latency, labeled by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// AuditInFlight is the number of audit writes not yet finished.
	AuditInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "artifact_scout",
		Subsystem: "audit",
		Name:      "writes_in_flight",
		Help:      "Audit log writes dispatched but not yet finished.",
	})
)

// Register registers the service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysisOutcomesTotal,
			ClassifierDurationSeconds,
			TeamCacheLookupsTotal,
			AuditWritesTotal,
			AuditInFlight,
			PreprocessDurationSeconds,
		)
	})
}
