package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "postalgeo"

// Dataset and engine Prometheus metrics.
var (
	DatasetRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Number of postal records in the published dataset",
		},
	)

	DatasetRegions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_regions",
			Help:      "Number of distinct region codes in the published dataset",
		},
	)

	DatasetBuiltAt = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_built_timestamp_seconds",
			Help:      "Unix time the published dataset was built",
		},
	)

	ReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Dataset rebuild attempts",
		},
		[]string{"source", "status"}, // "ok" / "error"
	)

	ReloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_reload_duration_seconds",
			Help:      "Time to load and index the dataset",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	ProximityExpansionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proximity_expansions_total",
			Help:      "Search box widenings caused by empty candidate sets",
		},
	)

	ProximityEmptyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proximity_empty_total",
			Help:      "Proximity searches that returned no results",
		},
	)
)

var registerOnce sync.Once

// RegisterDatasetMetrics registers the dataset and engine metrics. Safe to call more than once.
func RegisterDatasetMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DatasetRecords,
			DatasetRegions,
			DatasetBuiltAt,
			ReloadsTotal,
			ReloadDuration,
			ProximityExpansionsTotal,
			ProximityEmptyTotal,
		)
	})
}
