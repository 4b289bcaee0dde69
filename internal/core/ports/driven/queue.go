package driven

import (
	"context"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// JobQueue is a durable queue of sync invocations with at-least-once
// delivery. Retry happens at the granularity of one invocation: a
// transient mid-batch failure re-runs the whole batch, which the
// skip-if-unchanged check makes safe and cheap.
type JobQueue interface {
	// Enqueue creates a pending job for the given projects.
	Enqueue(ctx context.Context, projectIDs []string) (*domain.SyncJob, error)

	// Dequeue claims the oldest pending job, marking it running and
	// incrementing its attempt count. Returns domain.ErrNotFound when
	// no job is pending.
	Dequeue(ctx context.Context) (*domain.SyncJob, error)

	// Complete marks a job as successfully finished.
	Complete(ctx context.Context, id string) error

	// Fail records a failed attempt. Jobs with remaining budget return
	// to pending; exhausted jobs are marked failed.
	Fail(ctx context.Context, id string, errMsg string) error

	// Get retrieves a job by ID.
	Get(ctx context.Context, id string) (*domain.SyncJob, error)
}
