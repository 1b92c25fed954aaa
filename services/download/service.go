package download

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"vidfetch/errors"
	"vidfetch/ffmpeg"
	"vidfetch/files"
	"vidfetch/metrics"
	"vidfetch/models"
	"vidfetch/repository"
	"vidfetch/validation"
	"vidfetch/ytdlp"
)

type Repository = repository.DownloadRepository

// Archiver pushes finished files to object storage. Optional.
type Archiver interface {
	Archive(ctx context.Context, localPath, name string) error
}

type service struct {
	repo      Repository
	runner    *ytdlp.Runner
	binaries  *ffmpeg.Binaries
	store     *files.Store
	validator *validation.Validator
	archiver  Archiver
	queue     *JobQueue
	limiter   *rate.Limiter
	tracker   *progressTracker
	tempDir   string
	config    Config
	logger    *logrus.Logger
}

func NewService(
	repo Repository,
	runner *ytdlp.Runner,
	binaries *ffmpeg.Binaries,
	store *files.Store,
	validator *validation.Validator,
	archiver Archiver,
	tempDir string,
	config Config,
) Service {
	s := &service{
		repo:      repo,
		runner:    runner,
		binaries:  binaries,
		store:     store,
		validator: validator,
		archiver:  archiver,
		queue:     NewJobQueue(config.Workers, config.MaxQueueSize),
		tracker:   newProgressTracker(),
		tempDir:   tempDir,
		config:    config,
		logger:    logrus.StandardLogger(),
	}

	if config.SubmissionsPerMinute > 0 {
		burst := config.SubmissionBurst
		if burst <= 0 {
			burst = config.SubmissionsPerMinute
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.SubmissionsPerMinute)), burst)
	}

	s.queue.Start(s.process)
	return s
}

func (s *service) Start(ctx context.Context, url string, format models.Format) (*models.Download, error) {
	d, _, err := s.start(ctx, url, format, 0)
	return d, err
}

func (s *service) StartAndWait(ctx context.Context, url string, format models.Format) (*models.Download, error) {
	const op = "DownloadService.StartAndWait"

	d, result, err := s.start(ctx, url, format, 1)
	if err != nil {
		return nil, err
	}

	// Already finished (dedup hit), nothing to wait for.
	if result == nil {
		return d, nil
	}

	select {
	case <-ctx.Done():
		return nil, errors.Internal(op, ctx.Err(), "Request cancelled while downloading")
	case <-result:
		return s.Get(context.Background(), d.ID)
	}
}

// start validates and enqueues a job, deduplicating against earlier requests
// for the same URL and format. The result channel is nil when an existing
// finished job was reused.
func (s *service) start(ctx context.Context, url string, format models.Format, priority int) (*models.Download, <-chan error, error) {
	const op = "DownloadService.start"
	logger := s.logger.WithFields(logrus.Fields{
		"operation": op,
		"url":       url,
		"format":    format,
	})
	logger.Info("Download requested")

	if err := s.validator.ValidateFormat(format); err != nil {
		return nil, nil, err
	}
	if err := s.validator.ValidateURL(url); err != nil {
		return nil, nil, err
	}

	// mp3 extraction cannot work without ffmpeg.
	if format == models.FormatMP3 && s.binaries.FFmpeg == "" {
		return nil, nil, errors.InvalidInput(op, nil, "FFmpeg not installed. Cannot convert to MP3.")
	}

	if s.limiter != nil && !s.limiter.Allow() {
		return nil, nil, errors.RateLimited(op)
	}

	// Reuse earlier jobs for the same URL and format.
	existing, err := s.repo.FindByURL(ctx, url, format)
	if err == nil {
		if !shouldProcessExisting(existing, s.config.ProcessTimeout) {
			logger.WithField("id", existing.ID).Info("Reusing existing download")
			// An in-flight job has no file yet; synchronous callers join it
			// as an extra waiter instead of getting the bare record back.
			if existing.IsActive() {
				if result, ok := s.queue.Subscribe(existing.ID); ok {
					return s.overlayProgress(existing), result, nil
				}
			}
			return s.overlayProgress(existing), nil, nil
		}
		result, err := s.enqueue(existing, priority)
		return existing, result, err
	}

	download := &models.Download{
		ID:        uuid.New().String(),
		URL:       url,
		Format:    format,
		Platform:  validation.DetectPlatform(url),
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}

	result, err := s.enqueue(download, priority)
	return download, result, err
}

func shouldProcessExisting(d *models.Download, timeout time.Duration) bool {
	switch d.Status {
	case models.StatusCompleted:
		return false
	case models.StatusFailed:
		return true
	default:
		return d.IsStale(timeout)
	}
}

func (s *service) enqueue(download *models.Download, priority int) (<-chan error, error) {
	const op = "DownloadService.enqueue"

	download.Status = models.StatusPending
	download.Percent = 0
	download.Error = "" // Clear any previous error
	download.UpdatedAt = time.Now()

	if err := s.repo.Save(context.Background(), download); err != nil {
		return nil, errors.Internal(op, err, "Failed to save download")
	}

	s.tracker.Set(download.ID, models.StatusPending, 0)

	result, err := s.queue.Submit(context.Background(), download, priority)
	if err != nil {
		s.tracker.Delete(download.ID)
		metrics.QueueRejections.Inc()
		return nil, errors.Unavailable(op, err, "Too many downloads in progress, try again later")
	}

	metrics.JobsTotal.WithLabelValues(string(download.Format), "started").Inc()
	metrics.JobsActive.Inc()
	return result, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Download, error) {
	const op = "DownloadService.Get"

	if id == "" {
		return nil, errors.InvalidInput(op, nil, "ID is required")
	}

	download, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, errors.NotFound(op, err, "Download not found")
	}

	return s.overlayProgress(download), nil
}

// overlayProgress merges live progress into a persisted record.
func (s *service) overlayProgress(d *models.Download) *models.Download {
	if status, percent, ok := s.tracker.Get(d.ID); ok && d.IsActive() {
		d.Status = status
		d.Percent = percent
	}
	return d
}

func (s *service) Shutdown() {
	s.queue.Close()
}

// process runs one download job end to end. It is invoked by queue workers.
func (s *service) process(ctx context.Context, download *models.Download) error {
	logger := s.logger.WithFields(logrus.Fields{
		"job_id": download.ID,
		"url":    download.URL,
		"format": download.Format,
	})

	ctx, cancel := context.WithTimeout(ctx, s.config.ProcessTimeout)
	defer cancel()

	start := time.Now()
	defer metrics.JobsActive.Dec()

	err := s.run(ctx, download, logger)

	download.UpdatedAt = time.Now()
	if err != nil {
		download.Status = models.StatusFailed
		download.Error = err.Error()
		metrics.JobsTotal.WithLabelValues(string(download.Format), "failed").Inc()
	} else {
		download.Status = models.StatusCompleted
		download.Percent = 100
		metrics.JobsTotal.WithLabelValues(string(download.Format), "completed").Inc()
		metrics.JobDuration.WithLabelValues(string(download.Format)).Observe(time.Since(start).Seconds())
		metrics.BytesDownloaded.Add(float64(download.FileSize))
	}

	s.tracker.Delete(download.ID)

	if saveErr := s.repo.Save(context.Background(), download); saveErr != nil {
		logger.WithError(saveErr).Error("Failed to save download result")
	}

	return err
}

func (s *service) run(ctx context.Context, download *models.Download, logger *logrus.Entry) error {
	// Metadata first: catches dead URLs before the heavy download and
	// provides the title for the final filename.
	info, err := s.runner.FetchInfo(ctx, download.URL)
	if err != nil {
		logger.WithError(err).Warn("Metadata fetch failed, continuing with download")
	} else {
		download.Title = info.Title
		download.Duration = info.Duration
		s.persistProgress(download, models.StatusDownloading, 0)
	}

	tempDir := filepath.Join(s.tempDir, download.ID)
	defer os.RemoveAll(tempDir)

	s.tracker.Set(download.ID, models.StatusDownloading, 0)

	outPath, err := s.runner.Download(ctx, download.URL, download.Format, tempDir, func(event ytdlp.Event) {
		status := models.StatusDownloading
		if event.Stage == ytdlp.StageProcessing {
			status = models.StatusProcessing
		}
		s.tracker.Set(download.ID, status, event.Percent)
	})
	if err != nil {
		return err
	}

	filename, size, err := s.store.Finalize(outPath, download.Format)
	if err != nil {
		return err
	}
	download.Filename = filename
	download.FileSize = size

	// Duration from the produced file beats the metadata estimate.
	if s.binaries.FFprobe != "" {
		finalPath := filepath.Join(s.store.Dir(), filename)
		if probe, err := s.binaries.Probe(ctx, finalPath); err != nil {
			logger.WithError(err).Debug("Probe of finished file failed")
		} else if probe.Duration > 0 {
			download.Duration = probe.Duration
		}
	}

	if s.archiver != nil {
		finalPath := filepath.Join(s.store.Dir(), filename)
		if err := s.archiver.Archive(ctx, finalPath, filename); err != nil {
			logger.WithError(err).Warn("Archive upload failed")
		}
	}

	logger.WithFields(logrus.Fields{
		"filename": filename,
		"size":     size,
	}).Info("Download completed")

	return nil
}

// persistProgress writes a non-terminal state change through to the database.
func (s *service) persistProgress(download *models.Download, status models.Status, percent float64) {
	download.Status = status
	download.Percent = percent
	download.UpdatedAt = time.Now()

	if err := s.repo.Save(context.Background(), download); err != nil {
		s.logger.WithError(err).WithField("job_id", download.ID).Error("Failed to persist progress")
	}
}
