// Package asana renders Asana task snapshots into canonical content items.
package asana

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
)

// DateFormat is the fixed human-readable date format used in rendered
// content. Part of the hashing input, so it must never change casually.
const DateFormat = "Jan 2, 2006"

// unknownProject is the synthetic grouping used when a task resolves to
// no project membership.
var unknownProject = domain.ProjectRef{Name: "Unknown"}

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser converts tasks to content items. The rendering is a pure
// function of the task snapshot: fixed section order, fixed date format,
// comments in original chronological order.
type Normaliser struct{}

// New creates a task normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise renders a task into its canonical content item.
//
// Rendering order is fixed: title line, a status/assignee/due/tags summary
// line (fields included only when present), a description section when the
// notes are non-empty, then a comments section listing each comment as
// "author (date): text".
func (n *Normaliser) Normalise(task *domain.Task) *domain.ContentItem {
	project := unknownProject
	if len(task.Projects) > 0 {
		project = task.Projects[0]
	}

	status := "Incomplete"
	if task.Completed() {
		status = "Complete"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", task.Name))

	sb.WriteString(fmt.Sprintf("**Status:** %s", status))
	if task.Assignee != "" {
		sb.WriteString(fmt.Sprintf(" | **Assignee:** %s", task.Assignee))
	}
	if task.DueOn != "" {
		sb.WriteString(fmt.Sprintf(" | **Due:** %s", formatDate(task.DueOn)))
	}
	if len(task.Tags) > 0 {
		sb.WriteString(fmt.Sprintf(" | **Tags:** %s", strings.Join(task.Tags, ", ")))
	}
	sb.WriteString("\n\n")

	if task.Notes != "" {
		sb.WriteString(fmt.Sprintf("## Description\n%s\n\n", task.Notes))
	}

	if len(task.Comments) > 0 {
		sb.WriteString("## Comments\n\n")
		for _, comment := range task.Comments {
			sb.WriteString(fmt.Sprintf("**%s** (%s):\n%s\n\n",
				comment.Author, formatDate(comment.CreatedAt), comment.Text))
		}
	}

	return &domain.ContentItem{
		SourceType: domain.SourceTypeAsanaTask,
		SourceID:   task.GID,
		SourceURL:  task.Permalink,
		Title:      task.Name,
		Content:    strings.TrimSpace(sb.String()),
		Metadata:   buildMetadata(task, project),
	}
}

// buildMetadata assembles the structured facets carried alongside the
// content. Metadata is NOT part of the fingerprint input: facet-only
// edits do not trigger a re-sync.
func buildMetadata(task *domain.Task, project domain.ProjectRef) map[string]any {
	var assignee any
	if task.Assignee != "" {
		assignee = task.Assignee
	}

	var dueOn any
	if task.DueOn != "" {
		dueOn = task.DueOn
	}

	status := domain.StatusIncomplete
	if task.Completed() {
		status = domain.StatusComplete
	}

	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}

	return map[string]any{
		"project_id":    project.GID,
		"project_name":  project.Name,
		"assignee":      assignee,
		"status":        status,
		"tags":          tags,
		"due_on":        dueOn,
		"created_at":    task.CreatedAt,
		"modified_at":   task.ModifiedAt,
		"comment_count": len(task.Comments),
	}
}

// formatDate renders a timestamp or date string in the fixed display
// format. Unparseable input passes through unchanged; this never fails.
func formatDate(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateFormat)
		}
	}
	return raw
}
