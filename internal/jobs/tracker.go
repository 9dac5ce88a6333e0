// Package jobs provides an in-memory tracker for short-lived background
// work, such as sending verification emails. Jobs are queued onto a bounded
// worker pool and their lifecycle can be polled by id. State is process-local
// and is lost on restart.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status enumerates job lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is a snapshot of a tracked background task.
type Job struct {
	ID          string     `json:"job_id"`
	Kind        string     `json:"kind"`
	UserID      int64      `json:"user_id"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Work is the unit of work executed by the pool. The context is canceled
// when the tracker shuts down.
type Work func(ctx context.Context) error

type task struct {
	jobID string
	fn    Work
}

// Config holds tracker pool sizing.
type Config struct {
	Workers   int
	QueueSize int
}

// DefaultConfig returns pool sizing suitable for a single service instance.
func DefaultConfig() Config {
	return Config{Workers: 4, QueueSize: 64}
}

// Tracker owns the job map and the worker pool.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	queue  chan task
	wg     sync.WaitGroup
	cancel context.CancelFunc
	ctx    context.Context

	logger *slog.Logger
}

// NewTracker starts a tracker with the given pool configuration.
func NewTracker(cfg Config, logger *slog.Logger) *Tracker {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		jobs:   make(map[string]*Job),
		queue:  make(chan task, cfg.QueueSize),
		cancel: cancel,
		ctx:    ctx,
		logger: logger,
	}

	for i := 0; i < cfg.Workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}

	return t
}

// Submit registers a new job and enqueues it without blocking. If the queue
// is full the job is recorded as failed immediately so the caller still gets
// a pollable id.
func (t *Tracker) Submit(kind string, userID int64, fn Work) Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		UserID:    userID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()

	select {
	case t.queue <- task{jobID: job.ID, fn: fn}:
	default:
		t.setStatus(job.ID, StatusFailed, "job queue full")
		t.logger.Warn("job rejected, queue full",
			slog.String("job_id", job.ID),
			slog.String("kind", kind),
		)
	}

	return t.snapshot(job.ID)
}

// Get returns a snapshot of the job with the given id.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Shutdown stops accepting progress: the worker context is canceled, workers
// drain, and any job not yet finished is marked failed. It returns when all
// workers have exited or ctx expires.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.cancel()
	close(t.queue)

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("job tracker shutdown: %w", ctx.Err())
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UTC()
	for _, job := range t.jobs {
		if job.Status == StatusPending || job.Status == StatusProcessing {
			job.Status = StatusFailed
			job.Error = "service shutting down"
			job.UpdatedAt = now
			job.CompletedAt = &now
		}
	}

	return nil
}

func (t *Tracker) worker() {
	defer t.wg.Done()
	for tk := range t.queue {
		if t.ctx.Err() != nil {
			t.setStatus(tk.jobID, StatusFailed, "service shutting down")
			continue
		}

		t.setStatus(tk.jobID, StatusProcessing, "")
		if err := tk.fn(t.ctx); err != nil {
			t.setStatus(tk.jobID, StatusFailed, err.Error())
			t.logger.Error("job failed",
				slog.String("job_id", tk.jobID),
				slog.String("error", err.Error()),
			)
			continue
		}
		t.setStatus(tk.jobID, StatusCompleted, "")
	}
}

func (t *Tracker) setStatus(id string, status Status, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = now
	switch status {
	case StatusProcessing:
		job.StartedAt = &now
	case StatusCompleted, StatusFailed:
		job.CompletedAt = &now
	}
}

func (t *Tracker) snapshot(id string) Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return *t.jobs[id]
}
