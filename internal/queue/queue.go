// Package queue serializes YouTube uploads through a single worker
// goroutine. Jobs flow in over a channel, every outcome is written to the
// upload history, and a configurable delay spaces consecutive uploads.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shortsup/shortsup/internal/history"
	"github.com/shortsup/shortsup/internal/logging"
	"github.com/shortsup/shortsup/internal/youtube"
)

const (
	StatusQueued    = "queued"
	StatusUploading = "uploading"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	queueCapacity      = 64
	pauseCheckInterval = 50 * time.Millisecond
)

// Job is one pending or finished upload.
type Job struct {
	ID          string                `json:"id"`
	Filename    string                `json:"filename"`
	Path        string                `json:"path"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Privacy     youtube.PrivacyStatus `json:"privacy,omitempty"`
	Status      string                `json:"status"`
	Progress    int                   `json:"progress"`
	YouTubeURL  string                `json:"youtube_url,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Uploader performs the actual video upload.
type Uploader interface {
	Upload(ctx context.Context, opts youtube.UploadOptions, progressFunc func(read, total int64)) (*youtube.UploadResult, error)
}

// Queue owns the worker goroutine and the job status table.
type Queue struct {
	uploader Uploader
	history  history.Repository
	logger   *slog.Logger
	delay    time.Duration

	jobs    chan *Job
	paused  atomic.Bool
	running atomic.Bool

	mu       sync.RWMutex
	statuses map[string]*Job
	order    []string
}

func New(uploader Uploader, repo history.Repository, delay time.Duration, logger *slog.Logger) *Queue {
	return &Queue{
		uploader: uploader,
		history:  repo,
		logger:   logger,
		delay:    delay,
		jobs:     make(chan *Job, queueCapacity),
		statuses: make(map[string]*Job),
	}
}

// Start runs the worker loop until ctx is cancelled. Calling Start twice
// is a no-op.
func (q *Queue) Start(ctx context.Context) {
	if q.running.Swap(true) {
		return
	}
	defer q.running.Store(false)

	q.logger.Info("upload worker started", "delay", q.delay)

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("upload worker stopping")
			return
		case job := <-q.jobs:
			if !q.waitWhilePaused(ctx) {
				return
			}
			q.process(ctx, job)

			// Space consecutive uploads so the API quota is not burned
			// in a burst.
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.delay):
			}
		}
	}
}

// Enqueue adds a job and returns false when the queue is full.
func (q *Queue) Enqueue(job *Job) bool {
	job.Status = StatusQueued

	q.mu.Lock()
	if _, seen := q.statuses[job.ID]; !seen {
		q.order = append(q.order, job.ID)
	}
	q.statuses[job.ID] = job
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		q.logger.Info("job queued", "job_id", job.ID, "filename", job.Filename)
		return true
	default:
		q.setFailed(job.ID, "queue full")
		return false
	}
}

func (q *Queue) Pause() {
	q.paused.Store(true)
	q.logger.Info("upload queue paused")
}

func (q *Queue) Resume() {
	q.paused.Store(false)
	q.logger.Info("upload queue resumed")
}

func (q *Queue) IsPaused() bool {
	return q.paused.Load()
}

func (q *Queue) IsRunning() bool {
	return q.running.Load()
}

// Snapshot returns a copy of every tracked job in enqueue order.
func (q *Queue) Snapshot() []Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]Job, 0, len(q.order))
	for _, id := range q.order {
		if job, ok := q.statuses[id]; ok {
			out = append(out, *job)
		}
	}
	return out
}

func (q *Queue) waitWhilePaused(ctx context.Context) bool {
	for q.paused.Load() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pauseCheckInterval):
		}
	}
	return true
}

func (q *Queue) process(ctx context.Context, job *Job) {
	q.update(job.ID, func(j *Job) {
		j.Status = StatusUploading
		j.Progress = 0
	})
	logger := logging.WithUploadID(q.logger, job.ID)
	logger.Info("uploading", "filename", job.Filename)

	result, err := q.uploader.Upload(ctx, youtube.UploadOptions{
		VideoPath:     job.Path,
		Title:         job.Title,
		Description:   job.Description,
		Tags:          job.Tags,
		PrivacyStatus: job.Privacy,
	}, func(read, total int64) {
		if total <= 0 {
			return
		}
		pct := int(read * 100 / total)
		q.update(job.ID, func(j *Job) { j.Progress = pct })
	})

	rec := &history.Record{
		ID:         job.ID,
		Filename:   job.Filename,
		Title:      job.Title,
		UploadDate: time.Now().UTC(),
	}

	if err != nil {
		q.setFailed(job.ID, err.Error())
		rec.Status = history.StatusFailed
		rec.Error = err.Error()
		logger.Error("upload failed", "error", err)
	} else {
		q.update(job.ID, func(j *Job) {
			j.Status = StatusCompleted
			j.Progress = 100
			j.YouTubeURL = result.VideoURL
		})
		rec.Status = history.StatusCompleted
		rec.YouTubeURL = result.VideoURL
		logger.Info("upload completed", "url", result.VideoURL)
	}

	if err := q.history.Create(ctx, rec); err != nil {
		logger.Error("failed to record upload history", "error", err)
	}
}

func (q *Queue) update(id string, fn func(*Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.statuses[id]; ok {
		fn(job)
	}
}

func (q *Queue) setFailed(id, msg string) {
	q.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = msg
	})
}
