package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LinksAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yaydl_links_added_total",
		Help: "Total number of links added to the job list",
	})

	LinksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yaydl_links_rejected_total",
		Help: "Total number of rejected links by reason",
	}, []string{"reason"})

	MetadataFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yaydl_metadata_fetches_total",
		Help: "Total number of metadata retrievals by result",
	}, []string{"result"})

	DownloadsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yaydl_downloads_started_total",
		Help: "Total number of extraction runs started",
	})

	DownloadsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yaydl_downloads_finished_total",
		Help: "Total number of extraction runs finished",
	})

	DownloadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yaydl_downloads_failed_total",
		Help: "Total number of extraction runs failed",
	})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yaydl_download_duration_seconds",
		Help:    "Extraction run duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	UpdateCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yaydl_update_cycles_total",
		Help: "Total number of update cycles by result",
	}, []string{"result"})
)
