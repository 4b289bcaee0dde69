package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// A missing knowledge entry during sync is a normal outcome, not an
	// error: it means the task is new.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates required credentials or settings are
	// missing. Fatal at startup of the affected operation; never retried.
	ErrNotConfigured = errors.New("not configured")

	// ErrSourceFetch indicates the whole-batch fetch from the task source
	// failed. It aborts the run and is reported as a single report-level
	// error entry.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrSyncInProgress indicates a sync is already running for the
	// project. Scheduled runs use this as their overlap guard.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrRetrieval indicates question answering failed while embedding
	// the question or querying the store. Fatal to the single request;
	// callers surface a generic message, never internal details.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
