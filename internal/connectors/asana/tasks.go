package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/logger"
)

// taskOptFields selects every task field the normaliser consumes.
const taskOptFields = "gid,name,notes,assignee.name,due_on,completed_at," +
	"created_at,modified_at,permalink_url,tags.name," +
	"memberships.project.gid,memberships.project.name"

// taskRecord is the wire shape of a task.
type taskRecord struct {
	GID      string `json:"gid"`
	Name     string `json:"name"`
	Notes    string `json:"notes"`
	Assignee *struct {
		Name string `json:"name"`
	} `json:"assignee"`
	DueOn       string `json:"due_on"`
	CompletedAt string `json:"completed_at"`
	CreatedAt   string `json:"created_at"`
	ModifiedAt  string `json:"modified_at"`
	Permalink   string `json:"permalink_url"`
	Tags        []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Memberships []struct {
		Project *struct {
			GID  string `json:"gid"`
			Name string `json:"name"`
		} `json:"project"`
	} `json:"memberships"`
}

// ListTasks returns all tasks in a project with their comments.
//
// The workspace API only exposes comments per task, so this is a bounded
// sequential fan-out: one stories call per task, paced by the client's
// rate limiter. A failed comment fetch degrades that task to zero
// comments rather than failing the batch.
func (c *Client) ListTasks(ctx context.Context, projectGID string) ([]domain.Task, error) {
	projectName, err := c.getProjectName(ctx, projectGID)
	if err != nil {
		return nil, fmt.Errorf("%w: project %s: %v", domain.ErrSourceFetch, projectGID, err)
	}

	q := url.Values{}
	q.Set("opt_fields", taskOptFields)

	var records []taskRecord
	err = c.getPaged(ctx, fmt.Sprintf("/projects/%s/tasks", projectGID), q,
		func(data json.RawMessage) error {
			var page []taskRecord
			if err := json.Unmarshal(data, &page); err != nil {
				return fmt.Errorf("decode tasks: %w", err)
			}
			records = append(records, page...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("%w: project %s: %v", domain.ErrSourceFetch, projectGID, err)
	}

	tasks := make([]domain.Task, 0, len(records))
	for i := range records {
		record := &records[i]

		comments, commErr := c.listComments(ctx, record.GID)
		if commErr != nil {
			logger.Warn("Failed to fetch comments for task %s: %v", record.GID, commErr)
			comments = nil
		}

		tasks = append(tasks, buildTask(record, comments, projectGID, projectName))
	}

	return tasks, nil
}

// GetTask fetches a single task with its comments.
func (c *Client) GetTask(ctx context.Context, projectGID, taskGID string) (*domain.Task, error) {
	projectName, err := c.getProjectName(ctx, projectGID)
	if err != nil {
		return nil, fmt.Errorf("%w: project %s: %v", domain.ErrSourceFetch, projectGID, err)
	}

	q := url.Values{}
	q.Set("opt_fields", taskOptFields)

	var record taskRecord
	if _, err := c.get(ctx, "/tasks/"+taskGID, q, &record); err != nil {
		return nil, fmt.Errorf("%w: task %s: %v", domain.ErrSourceFetch, taskGID, err)
	}

	comments, commErr := c.listComments(ctx, record.GID)
	if commErr != nil {
		logger.Warn("Failed to fetch comments for task %s: %v", record.GID, commErr)
		comments = nil
	}

	task := buildTask(&record, comments, projectGID, projectName)
	return &task, nil
}

// buildTask maps a wire record to the domain snapshot. Tasks with no
// membership fall back to the project being listed.
func buildTask(record *taskRecord, comments []domain.Comment, projectGID, projectName string) domain.Task {
	task := domain.Task{
		GID:         record.GID,
		Name:        record.Name,
		Notes:       record.Notes,
		DueOn:       record.DueOn,
		CompletedAt: record.CompletedAt,
		CreatedAt:   record.CreatedAt,
		ModifiedAt:  record.ModifiedAt,
		Permalink:   record.Permalink,
		Comments:    comments,
	}

	if record.Assignee != nil {
		task.Assignee = record.Assignee.Name
	}

	for _, tag := range record.Tags {
		if tag.Name != "" {
			task.Tags = append(task.Tags, tag.Name)
		}
	}

	for _, membership := range record.Memberships {
		if membership.Project != nil {
			task.Projects = append(task.Projects, domain.ProjectRef{
				GID:  membership.Project.GID,
				Name: membership.Project.Name,
			})
		}
	}
	if len(task.Projects) == 0 {
		task.Projects = []domain.ProjectRef{{GID: projectGID, Name: projectName}}
	}

	return task
}
