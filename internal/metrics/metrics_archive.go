package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ArchivePopulationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resctl_archive_population_duration_seconds",
			Help:    "Time spent reading a whole archive into the entry cache",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"archive"},
	)

	ArchiveCachedEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resctl_archive_cached_entries",
			Help: "Number of entries held by a caching archive loader",
		},
		[]string{"archive"},
	)

	ArchiveScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resctl_archive_scans_total",
			Help: "Total number of times an archive was opened and scanned",
		},
		[]string{"archive", "mode"},
	)
)
