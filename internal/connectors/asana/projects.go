package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// workspaceRecord is the wire shape of a workspace.
type workspaceRecord struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// projectRecord is the wire shape of a project.
type projectRecord struct {
	GID      string `json:"gid"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// ListWorkspaces returns all workspaces visible to the token.
func (c *Client) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	var workspaces []domain.Workspace

	err := c.getPaged(ctx, "/workspaces", nil, func(data json.RawMessage) error {
		var records []workspaceRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("decode workspaces: %w", err)
		}
		for _, w := range records {
			workspaces = append(workspaces, domain.Workspace{GID: w.GID, Name: w.Name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return workspaces, nil
}

// ListProjects returns unarchived projects. When workspaceGID is empty,
// projects from all workspaces are returned.
func (c *Client) ListProjects(ctx context.Context, workspaceGID string) ([]domain.Project, error) {
	if workspaceGID == "" {
		workspaces, err := c.ListWorkspaces(ctx)
		if err != nil {
			return nil, err
		}

		var all []domain.Project
		for _, w := range workspaces {
			projects, err := c.ListProjects(ctx, w.GID)
			if err != nil {
				return nil, err
			}
			all = append(all, projects...)
		}
		return all, nil
	}

	q := url.Values{}
	q.Set("opt_fields", "gid,name,archived")

	var projects []domain.Project
	path := fmt.Sprintf("/workspaces/%s/projects", workspaceGID)

	err := c.getPaged(ctx, path, q, func(data json.RawMessage) error {
		var records []projectRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("decode projects: %w", err)
		}
		for _, p := range records {
			if p.Archived {
				continue
			}
			projects = append(projects, domain.Project{GID: p.GID, Name: p.Name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return projects, nil
}

// getProjectName fetches a project's display name.
func (c *Client) getProjectName(ctx context.Context, projectGID string) (string, error) {
	var project struct {
		Name string `json:"name"`
	}
	q := url.Values{}
	q.Set("opt_fields", "name")
	if _, err := c.get(ctx, "/projects/"+projectGID, q, &project); err != nil {
		return "", err
	}
	if project.Name == "" {
		return "Unknown Project", nil
	}
	return project.Name, nil
}
