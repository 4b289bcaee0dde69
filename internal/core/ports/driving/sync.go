package driving

import (
	"context"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// SyncService coordinates knowledge base synchronisation from the task
// source.
type SyncService interface {
	// SyncProject synchronises all tasks in one project. Ingestion
	// failures are summarised in the report, never returned as an error;
	// the only error is domain.ErrSyncInProgress from the overlap guard.
	SyncProject(ctx context.Context, projectID string) (*domain.SyncReport, error)

	// SyncProjects synchronises several projects sequentially and
	// returns one report per project.
	SyncProjects(ctx context.Context, projectIDs []string) ([]domain.SyncReport, error)

	// SyncTask synchronises a single task by GID within a project and
	// returns its outcome.
	SyncTask(ctx context.Context, projectID, taskID string) (domain.SyncOutcome, error)
}

// AnswerService answers natural-language questions from the knowledge
// base.
type AnswerService interface {
	// Answer embeds the question, retrieves grounding context above the
	// similarity floor, and generates an answer with citations. A nil
	// error guarantees a non-empty answer text, even with empty context.
	Answer(ctx context.Context, question, sessionID string) (*domain.Answer, error)
}
