package domain

import "time"

// Job states for queued sync invocations.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// DefaultJobMaxAttempts is the retry budget for one queued sync
// invocation. Retry happens at invocation granularity, not per item:
// the skip-if-unchanged check makes re-running a whole batch cheap.
const DefaultJobMaxAttempts = 3

// SyncJob is one durably queued sync invocation.
type SyncJob struct {
	// ID is the unique job identifier.
	ID string

	// ProjectIDs lists the projects the invocation covers.
	ProjectIDs []string

	// Status is one of the JobStatus constants.
	Status string

	// Attempts counts executions so far.
	Attempts int

	// MaxAttempts is the retry budget.
	MaxAttempts int

	// LastError holds the most recent failure message, if any.
	LastError string

	// CreatedAt is when the job was enqueued.
	CreatedAt time.Time

	// UpdatedAt is when the job state last changed.
	UpdatedAt time.Time
}

// Exhausted reports whether the job has used up its retry budget.
func (j *SyncJob) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}
