package driven

import (
	"context"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// TaskSource fetches projects and tasks from the external workspace API.
//
// Fetch failures surface as a single error per call, never as a partial
// or silently-nil result. ListTasks performs a bounded sequential
// fan-out: the workspace API only exposes comments per task, so each
// task costs one extra call, paced by the client's rate limiter.
type TaskSource interface {
	// Validate checks credentials by fetching the authenticated user.
	// Returns the user's display name on success.
	Validate(ctx context.Context) (string, error)

	// ListWorkspaces returns all workspaces visible to the token.
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)

	// ListProjects returns unarchived projects. When workspaceGID is
	// empty, projects from all workspaces are returned.
	ListProjects(ctx context.Context, workspaceGID string) ([]domain.Project, error)

	// ListTasks returns all tasks in a project, each with its comments
	// fetched and ordered chronologically.
	ListTasks(ctx context.Context, projectGID string) ([]domain.Task, error)

	// GetTask fetches a single task with its comments.
	GetTask(ctx context.Context, projectGID, taskGID string) (*domain.Task, error)
}
