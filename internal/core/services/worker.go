package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
	"github.com/custodia-labs/knowsync/internal/logger"
)

// defaultPollInterval is how often the worker checks for pending jobs.
const defaultPollInterval = 2 * time.Second

// Worker drains the durable sync job queue. Each attempt runs a whole
// sync invocation; a failed attempt returns the job to the queue until
// its retry budget is exhausted.
type Worker struct {
	queue driven.JobQueue
	sync  driving.SyncService

	pollInterval time.Duration
}

// NewWorker creates a queue worker.
func NewWorker(queue driven.JobQueue, syncService driving.SyncService) *Worker {
	return &Worker{
		queue:        queue,
		sync:         syncService,
		pollInterval: defaultPollInterval,
	}
}

// Run polls the queue until the context is cancelled. It blocks, so run
// it on its own goroutine.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain processes pending jobs until the queue is empty.
func (w *Worker) drain(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return
		}
		if err != nil {
			logger.Warn("worker: dequeue failed: %v", err)
			return
		}

		w.runJob(ctx, job)

		if ctx.Err() != nil {
			return
		}
	}
}

// runJob executes one attempt of a queued sync invocation.
//
// Per-item errors stay in the report and do not fail the job; only a
// batch-level fetch failure or an engine error does, because those are
// the failures a retry can plausibly fix.
func (w *Worker) runJob(ctx context.Context, job *domain.SyncJob) {
	logger.Info("worker: running job %s (attempt %d/%d)", job.ID, job.Attempts, job.MaxAttempts)

	reports, err := w.sync.SyncProjects(ctx, job.ProjectIDs)
	if err == nil {
		err = batchFailure(reports)
	}

	if err != nil {
		if failErr := w.queue.Fail(ctx, job.ID, err.Error()); failErr != nil {
			logger.Warn("worker: recording failure for job %s: %v", job.ID, failErr)
		}
		logger.Warn("worker: job %s attempt failed: %v", job.ID, err)
		return
	}

	if err := w.queue.Complete(ctx, job.ID); err != nil {
		logger.Warn("worker: completing job %s: %v", job.ID, err)
		return
	}

	summary := domain.Summarise(reports)
	logger.Info("worker: job %s completed: %d synced, %d skipped",
		job.ID, summary.TotalSynced, summary.TotalSkipped)
}

// batchFailure reports an error if any project's batch fetch failed.
func batchFailure(reports []domain.SyncReport) error {
	for i := range reports {
		for _, syncErr := range reports[i].Errors {
			if syncErr.TaskID == domain.ReportErrorID {
				return fmt.Errorf("project %s: %s", reports[i].ProjectID, syncErr.Error)
			}
		}
	}
	return nil
}
