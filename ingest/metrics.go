package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_ingest_runs_total",
		Help: "The total number of ingestion runs by outcome",
	}, []string{"outcome"})

	runInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsdesk_ingest_run_in_progress",
		Help: "Whether an ingestion run currently holds the guard",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsdesk_ingest_run_duration_seconds",
		Help:    "Duration of full ingestion runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms up to ~3.5 minutes
	})

	feedsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_ingest_feeds_processed_total",
		Help: "The total number of feeds processed across all runs",
	})

	feedErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_ingest_feed_errors_total",
		Help: "The total number of per-feed failures recorded in run results",
	})

	entriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_ingest_entries_created_total",
		Help: "The total number of content records created from feed entries",
	})

	mediaOffloadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_media_offload_failures_total",
		Help: "The total number of failed media offload attempts",
	})

	guardOverruns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_ingest_guard_overruns_total",
		Help: "The total number of runs force-released by the guard ceiling",
	})
)
