package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_listing_duration_seconds",
			Help:    "Time spent fetching and running the listing pipeline.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"sort", "search"},
	)

	providerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_provider_fetch_failures_total",
			Help: "Course provider calls that failed and degraded to an empty or cached collection.",
		},
		[]string{"provider", "operation"},
	)

	snapshotCourses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_snapshot_courses",
		Help: "Number of courses in the current catalog snapshot.",
	})

	snapshotRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_snapshot_refreshes_total",
			Help: "Snapshot refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)
)
