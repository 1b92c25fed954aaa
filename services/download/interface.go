package download

import (
	"context"
	"time"

	"vidfetch/models"
)

type Service interface {
	// Start initiates a new download job or returns an existing one for the
	// same URL and format.
	Start(ctx context.Context, url string, format models.Format) (*models.Download, error)

	// StartAndWait runs a download synchronously, returning the finished job.
	StartAndWait(ctx context.Context, url string, format models.Format) (*models.Download, error)

	// Get retrieves a download job by ID, with live progress overlaid.
	Get(ctx context.Context, id string) (*models.Download, error)

	// Shutdown stops the worker pool and cancels running jobs.
	Shutdown()
}

type Config struct {
	// ProcessTimeout is the maximum time allowed for a single download job.
	ProcessTimeout time.Duration `json:"process_timeout"`

	// Worker pool sizing
	Workers      int `json:"workers"`
	MaxQueueSize int `json:"max_queue_size"`

	// SubmissionsPerMinute throttles new job submissions service-wide,
	// independent of the per-IP HTTP limiter. SubmissionBurst is the
	// limiter's burst size, defaulting to SubmissionsPerMinute.
	SubmissionsPerMinute int `json:"submissions_per_minute"`
	SubmissionBurst      int `json:"submission_burst"`
}
