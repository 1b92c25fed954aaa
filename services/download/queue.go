package download

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"vidfetch/models"
)

// Common errors
var (
	ErrQueueFull = errors.New("job queue is full")
)

type JobQueue struct {
	jobs         chan *Job
	priorityJobs chan *Job
	activeJobs   map[string]*Job
	workerCount  int
	maxJobs      int
	mu           sync.Mutex
	quit         chan struct{}
	wg           sync.WaitGroup
	logger       *logrus.Logger
}

type Job struct {
	ID         string
	Download   *models.Download
	ctx        context.Context
	cancelFunc context.CancelFunc
	result     chan error
	waiters    []chan error
	priority   int
	startTime  time.Time
}

func NewJobQueue(workerCount, maxQueueSize int) *JobQueue {
	return &JobQueue{
		jobs:         make(chan *Job, maxQueueSize),
		priorityJobs: make(chan *Job, 5), // Small buffer for priority jobs
		activeJobs:   make(map[string]*Job),
		workerCount:  workerCount,
		maxJobs:      maxQueueSize,
		quit:         make(chan struct{}),
		logger:       logrus.StandardLogger(),
	}
}

// Start begins processing jobs
func (q *JobQueue) Start(processFunc func(context.Context, *models.Download) error) {
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(i, processFunc)
	}

	// Watch for jobs that run far beyond the expected timeout.
	go q.monitorHungJobs()
}

// Submit adds a job to the queue. The returned channel receives the job's
// terminal error (or nil) exactly once.
func (q *JobQueue) Submit(ctx context.Context, download *models.Download, priority int) (<-chan error, error) {
	jobCtx, cancel := context.WithCancel(ctx)

	job := &Job{
		ID:         download.ID,
		Download:   download,
		ctx:        jobCtx,
		cancelFunc: cancel,
		result:     make(chan error, 1),
		priority:   priority,
		startTime:  time.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) >= q.maxJobs {
		cancel() // Clean up context
		return nil, ErrQueueFull
	}

	q.activeJobs[job.ID] = job

	if priority > 0 {
		select {
		case q.priorityJobs <- job:
			// Queued on the priority lane
		default:
			// Priority queue full, use regular queue
			q.jobs <- job
		}
	} else {
		q.jobs <- job
	}

	return job.result, nil
}

// Subscribe registers an additional waiter on a queued or running job. The
// returned channel receives the job's terminal error exactly once. Reports
// false when the job is no longer active.
func (q *JobQueue) Subscribe(jobID string) (<-chan error, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.activeJobs[jobID]
	if !exists {
		return nil, false
	}

	ch := make(chan error, 1)
	job.waiters = append(job.waiters, ch)
	return ch, true
}

// Cancel attempts to cancel a job
func (q *JobQueue) Cancel(jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.activeJobs[jobID]
	if !exists {
		return false
	}

	job.cancelFunc()
	return true
}

// Active reports whether a job is queued or running, and since when.
func (q *JobQueue) Active(jobID string) (bool, time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, exists := q.activeJobs[jobID]
	if !exists {
		return false, time.Time{}
	}
	return true, job.startTime
}

func (q *JobQueue) worker(id int, processFunc func(context.Context, *models.Download) error) {
	defer q.wg.Done()

	log := q.logger.WithField("worker_id", id)
	log.Info("Starting worker")

	for {
		var job *Job
		// Priority lane first, then the regular queue.
		select {
		case <-q.quit:
			log.Info("Worker shutting down")
			return
		case job = <-q.priorityJobs:
		default:
			select {
			case <-q.quit:
				log.Info("Worker shutting down")
				return
			case job = <-q.priorityJobs:
			case job = <-q.jobs:
			}
		}

		jobLog := log.WithField("job_id", job.ID)
		jobLog.Info("Started processing job")
		startTime := time.Now()

		err := processFunc(job.ctx, job.Download)
		duration := time.Since(startTime)

		if err != nil {
			jobLog.WithError(err).WithField("duration_ms", duration.Milliseconds()).Error("Job processing failed")
		} else {
			jobLog.WithField("duration_ms", duration.Milliseconds()).Info("Job processing succeeded")
		}

		job.result <- err
		job.cancelFunc()

		// Remove from the active set before notifying waiters so a late
		// Subscribe cannot land on a job that already delivered.
		q.mu.Lock()
		delete(q.activeJobs, job.ID)
		waiters := job.waiters
		q.mu.Unlock()

		for _, w := range waiters {
			w <- err
		}
	}
}

// Close shuts down the queue and cancels all active jobs.
func (q *JobQueue) Close() {
	close(q.quit)

	q.mu.Lock()
	for _, job := range q.activeJobs {
		job.cancelFunc()
	}
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *JobQueue) monitorHungJobs() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-q.quit:
			return
		case <-ticker.C:
			q.checkHungJobs()
		}
	}
}

func (q *JobQueue) checkHungJobs() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	hungTimeout := 30 * time.Minute

	for id, job := range q.activeJobs {
		if now.Sub(job.startTime) > hungTimeout {
			q.logger.WithFields(logrus.Fields{
				"job_id":   id,
				"duration": now.Sub(job.startTime).String(),
			}).Warn("Found hung job")
			// Log but don't automatically cancel - that should be a separate policy decision
		}
	}
}
