package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Download job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidfetch_jobs_total",
			Help: "Total number of download jobs by format and outcome",
		},
		[]string{"format", "status"},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidfetch_jobs_active",
			Help: "Number of download jobs currently in the queue or running",
		},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidfetch_job_duration_seconds",
			Help:    "Download job duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"format"},
	)

	QueueRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidfetch_queue_rejections_total",
			Help: "Number of jobs rejected because the queue was full",
		},
	)
)

// File store metrics
var (
	FilesDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidfetch_files_deleted_total",
			Help: "Number of files removed from the download directory",
		},
		[]string{"reason"}, // "expired", "api"
	)

	BytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidfetch_bytes_downloaded_total",
			Help: "Total bytes of finished downloads",
		},
	)
)

// Initialize pre-populates expected label combinations so every series is
// exported from the first scrape.
func Initialize() {
	for _, format := range []string{"mp3", "mp4"} {
		for _, status := range []string{"started", "completed", "failed"} {
			JobsTotal.WithLabelValues(format, status)
		}
		JobDuration.WithLabelValues(format)
	}

	for _, reason := range []string{"expired", "api"} {
		FilesDeleted.WithLabelValues(reason)
	}
}
