package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
)

// jobQueue implements driven.JobQueue on top of the sync_jobs table.
type jobQueue struct {
	store *Store
}

var _ driven.JobQueue = (*jobQueue)(nil)

// Enqueue creates a pending job for the given projects.
func (q *jobQueue) Enqueue(ctx context.Context, projectIDs []string) (*domain.SyncJob, error) {
	if len(projectIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}

	projectsJSON, err := json.Marshal(projectIDs)
	if err != nil {
		return nil, fmt.Errorf("marshalling project IDs: %w", err)
	}

	now := time.Now().UTC()
	job := &domain.SyncJob{
		ID:          uuid.NewString(),
		ProjectIDs:  projectIDs,
		Status:      domain.JobStatusPending,
		MaxAttempts: domain.DefaultJobMaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = q.store.db.ExecContext(ctx, `
		INSERT INTO sync_jobs (id, project_ids, status, attempts, max_attempts, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?, ?)
	`, job.ID, string(projectsJSON), job.Status, job.MaxAttempts, job.CreatedAt, job.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("enqueueing job: %w", err)
	}
	return job, nil
}

// Dequeue claims the oldest pending job, marking it running and
// incrementing its attempt count. The claim runs in a transaction so
// concurrent workers never pick up the same job.
func (q *jobQueue) Dequeue(ctx context.Context) (*domain.SyncJob, error) {
	tx, err := q.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `
		SELECT id, project_ids, status, attempts, max_attempts, last_error, created_at, updated_at
		FROM sync_jobs
		WHERE status = ?
		ORDER BY created_at
		LIMIT 1
	`, domain.JobStatusPending)

	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}

	job.Status = domain.JobStatusRunning
	job.Attempts++
	job.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		UPDATE sync_jobs SET status = ?, attempts = ?, updated_at = ?
		WHERE id = ?
	`, job.Status, job.Attempts, job.UpdatedAt, job.ID); err != nil {
		return nil, fmt.Errorf("claiming job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}
	return job, nil
}

// Complete marks a job as successfully finished.
func (q *jobQueue) Complete(ctx context.Context, id string) error {
	result, err := q.store.db.ExecContext(ctx, `
		UPDATE sync_jobs SET status = ?, last_error = NULL, updated_at = ?
		WHERE id = ?
	`, domain.JobStatusCompleted, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("completing job: %w", err)
	}
	return checkAffected(result)
}

// Fail records a failed attempt. Jobs with remaining budget return to
// pending; exhausted jobs are marked failed.
func (q *jobQueue) Fail(ctx context.Context, id string, errMsg string) error {
	job, err := q.Get(ctx, id)
	if err != nil {
		return err
	}

	status := domain.JobStatusPending
	if job.Exhausted() {
		status = domain.JobStatusFailed
	}

	result, err := q.store.db.ExecContext(ctx, `
		UPDATE sync_jobs SET status = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, status, nullString(errMsg), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failing job: %w", err)
	}
	return checkAffected(result)
}

// Get retrieves a job by ID.
func (q *jobQueue) Get(ctx context.Context, id string) (*domain.SyncJob, error) {
	row := q.store.db.QueryRowContext(ctx, `
		SELECT id, project_ids, status, attempts, max_attempts, last_error, created_at, updated_at
		FROM sync_jobs WHERE id = ?
	`, id)

	return scanJob(row)
}

// recoverStaleJobs returns jobs a previous process left in the running
// state back to pending so they are claimable again. Runs once when the
// store opens. Attempts already counted stay counted, so the retry
// budget still bounds crash loops.
func (s *Store) recoverStaleJobs() error {
	_, err := s.db.Exec(`
		UPDATE sync_jobs SET status = ?, updated_at = ?
		WHERE status = ?
	`, domain.JobStatusPending, time.Now().UTC(), domain.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("recovering stale jobs: %w", err)
	}
	return nil
}

// scanJob scans a single sync job row.
func scanJob(row *sql.Row) (*domain.SyncJob, error) {
	var job domain.SyncJob
	var projectsJSON string
	var lastError sql.NullString
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&job.ID, &projectsJSON, &job.Status, &job.Attempts,
		&job.MaxAttempts, &lastError, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	if err := json.Unmarshal([]byte(projectsJSON), &job.ProjectIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling project IDs: %w", err)
	}

	job.LastError = lastError.String
	if createdAt.Valid {
		job.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		job.UpdatedAt = updatedAt.Time
	}

	return &job, nil
}

// checkAffected converts a zero-row update into ErrNotFound.
func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
