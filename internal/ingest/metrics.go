package ingest

import "github.com/prometheus/client_golang/prometheus"

var (
	intentsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "preranker",
			Subsystem: "ingest",
			Name:      "intents_ingested_total",
			Help:      "The number of intents resolved and cached",
		},
	)
	intentsByCategory = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preranker",
			Subsystem: "ingest",
			Name:      "intents_by_category_total",
			Help:      "The number of ingested intents per classified category",
		},
		[]string{"category"},
	)
	solutionsPassed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "preranker",
			Subsystem: "ingest",
			Name:      "solutions_passed_total",
			Help:      "The number of solutions admitted to the ranking queue",
		},
	)
	solutionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preranker",
			Subsystem: "ingest",
			Name:      "solutions_failed_total",
			Help:      "The number of rejected solutions",
		},
		[]string{"reason"},
	)
	solutionsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "preranker",
			Subsystem: "ingest",
			Name:      "solutions_skipped_total",
			Help:      "The number of solution events skipped because the intent was not cached",
		},
	)
	blobResolutionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preranker",
			Subsystem: "ingest",
			Name:      "blob_resolution_failures_total",
			Help:      "The number of blob fetch or decode failures",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(intentsIngested)
	prometheus.MustRegister(intentsByCategory)
	prometheus.MustRegister(solutionsPassed)
	prometheus.MustRegister(solutionsFailed)
	prometheus.MustRegister(solutionsSkipped)
	prometheus.MustRegister(blobResolutionFailures)
}
