package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync metrics
	PlayersSyncedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoinsight_players_synced_total",
		Help: "Player sync attempts by result",
	}, []string{"result"}) // updated, unchanged, error

	OnDemandSyncsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoinsight_on_demand_syncs_total",
		Help: "Syncs triggered by a user viewing an untracked player",
	})

	// Tracking metrics
	EvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoinsight_rotation_evictions_total",
		Help: "Players evicted from the tracking rotation pool",
	})

	// Tracker job metrics
	TrackerRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoinsight_tracker_runs_total",
		Help: "Completed periodic tracker job runs",
	})
	TrackerRunsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoinsight_tracker_runs_skipped_total",
		Help: "Tracker job firings skipped because a run was in flight",
	})
	TrackerBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoinsight_tracker_batch_duration_seconds",
		Help:    "Duration of one full tracked-player sync batch",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// Upstream metrics
	UpstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoinsight_upstream_errors_total",
		Help: "Failed GeoGuessr API calls by endpoint",
	}, []string{"endpoint"})
)
