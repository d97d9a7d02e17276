package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evalbox_evaluations_total",
		Help: "The total number of evaluation requests served",
	}, []string{"task", "status"})

	evaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evalbox_evaluation_duration_seconds",
		Help:    "Duration of evaluation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	datasetLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evalbox_dataset_load_duration_seconds",
		Help:    "Duration of dataset loads from disk",
		Buckets: prometheus.DefBuckets,
	})

	evaluationAnnotations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evalbox_evaluation_annotations",
		Help:    "Distribution of annotation counts per evaluation",
		Buckets: []float64{10, 100, 1000, 10000, 100000, 1000000},
	}, []string{"task"})
)
