package domain

import "time"

// SyncOutcome classifies the result of processing a single task.
type SyncOutcome string

// Outcomes for a single task within a sync run.
const (
	// OutcomeSynced covers both fresh inserts and in-place updates.
	OutcomeSynced SyncOutcome = "synced"

	// OutcomeSkipped means the stored fingerprint matched; no write.
	OutcomeSkipped SyncOutcome = "skipped"
)

// ReportErrorID is the item identity used for report-level errors, where
// the whole batch fetch failed rather than a single task.
const ReportErrorID = "project"

// SyncError records one failed item within a sync run.
type SyncError struct {
	// TaskID is the task GID, or ReportErrorID for batch-level failures.
	TaskID string `json:"taskId"`

	// Error is the failure message.
	Error string `json:"error"`
}

// SyncReport summarises one sync invocation over a project.
// It is a value object returned to the caller and never stored.
// Created at invocation start, finalised at completion, immutable after.
type SyncReport struct {
	// ProjectID is the project GID the run covered.
	ProjectID string `json:"projectId"`

	// Synced counts inserts plus updates.
	Synced int `json:"synced"`

	// Skipped counts unchanged tasks.
	Skipped int `json:"skipped"`

	// Errors lists per-item failures in processing order.
	Errors []SyncError `json:"errors"`

	// StartedAt and CompletedAt bound the run. CompletedAt is always
	// stamped, even on partial failure.
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// SyncSummary aggregates reports across projects. Counts are commutative;
// the summary carries no per-item detail.
type SyncSummary struct {
	TotalProjects int          `json:"totalProjects"`
	TotalSynced   int          `json:"totalSynced"`
	TotalSkipped  int          `json:"totalSkipped"`
	TotalErrors   int          `json:"totalErrors"`
	Reports       []SyncReport `json:"reports,omitempty"`
}

// Summarise rolls a set of reports up into a summary.
func Summarise(reports []SyncReport) SyncSummary {
	summary := SyncSummary{
		TotalProjects: len(reports),
		Reports:       reports,
	}
	for i := range reports {
		summary.TotalSynced += reports[i].Synced
		summary.TotalSkipped += reports[i].Skipped
		summary.TotalErrors += len(reports[i].Errors)
	}
	return summary
}
