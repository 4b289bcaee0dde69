package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// storySubtypeComment identifies stories that are user comments, as
// opposed to system activity entries.
const storySubtypeComment = "comment_added"

// storyRecord is the wire shape of a story.
type storyRecord struct {
	GID       string `json:"gid"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	CreatedBy *struct {
		Name string `json:"name"`
	} `json:"created_by"`
	ResourceSubtype string `json:"resource_subtype"`
}

// listComments fetches the comment stories for a task in chronological
// order, skipping non-comment activity.
func (c *Client) listComments(ctx context.Context, taskGID string) ([]domain.Comment, error) {
	q := url.Values{}
	q.Set("opt_fields", "gid,text,created_by.name,created_at,resource_subtype")

	var comments []domain.Comment
	err := c.getPaged(ctx, fmt.Sprintf("/tasks/%s/stories", taskGID), q,
		func(data json.RawMessage) error {
			var records []storyRecord
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("decode stories: %w", err)
			}
			for _, story := range records {
				if story.ResourceSubtype != storySubtypeComment || story.Text == "" {
					continue
				}
				author := "Unknown"
				if story.CreatedBy != nil && story.CreatedBy.Name != "" {
					author = story.CreatedBy.Name
				}
				comments = append(comments, domain.Comment{
					GID:       story.GID,
					Author:    author,
					CreatedAt: story.CreatedAt,
					Text:      story.Text,
				})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	return comments, nil
}
