package domain

// Workspace is an Asana workspace the authenticated user can see.
type Workspace struct {
	// GID is the Asana global identifier.
	GID string

	// Name is the workspace display name.
	Name string
}

// Project is an Asana project summary.
type Project struct {
	// GID is the Asana global identifier.
	GID string

	// Name is the project display name.
	Name string

	// Archived indicates the project has been archived in Asana.
	Archived bool
}

// ProjectRef is a lightweight reference to a project a task belongs to.
type ProjectRef struct {
	GID  string
	Name string
}

// Comment is a single comment on a task, in original chronological order.
type Comment struct {
	// GID is the Asana global identifier of the story.
	GID string

	// Author is the display name of the comment author.
	Author string

	// CreatedAt is the raw creation timestamp as returned by the API.
	CreatedAt string

	// Text is the comment body.
	Text string
}

// Task is one task fetched from Asana, including its comments.
// It is a read-only snapshot: tasks are fetched fresh on every sync pass
// and never persisted in this form.
type Task struct {
	// GID is the Asana global identifier, stable across fetches.
	GID string

	// Name is the task title.
	Name string

	// Notes is the free-text description.
	Notes string

	// Assignee is the assignee display name, empty when unassigned.
	Assignee string

	// DueOn is the due date (YYYY-MM-DD), empty when unset.
	DueOn string

	// CompletedAt is the completion timestamp, empty for open tasks.
	CompletedAt string

	// CreatedAt is the creation timestamp.
	CreatedAt string

	// ModifiedAt is the last-modified timestamp.
	ModifiedAt string

	// Permalink is the canonical Asana URL for the task.
	Permalink string

	// Tags holds the tag names attached to the task.
	Tags []string

	// Projects lists the projects the task is a member of.
	Projects []ProjectRef

	// Comments holds the task's comments in chronological order.
	Comments []Comment
}

// Completed reports whether the task has been completed.
func (t *Task) Completed() bool {
	return t.CompletedAt != ""
}
