package asana

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

func fullTask() *domain.Task {
	return &domain.Task{
		GID:        "1201",
		Name:       "Fix login bug",
		Notes:      "Users cannot log in with SSO.\nRepro: open /login.",
		Assignee:   "Dana Scully",
		DueOn:      "2024-03-15",
		CreatedAt:  "2024-02-28T09:00:00.000Z",
		ModifiedAt: "2024-03-02T08:15:00.000Z",
		Permalink:  "https://app.asana.com/0/100/1201",
		Tags:       []string{"auth", "urgent"},
		Projects:   []domain.ProjectRef{{GID: "100", Name: "Engineering"}},
		Comments: []domain.Comment{
			{GID: "c1", Author: "Fox Mulder", CreatedAt: "2024-03-01T10:30:00.000Z", Text: "Confirmed on staging."},
			{GID: "c2", Author: "Dana Scully", CreatedAt: "2024-03-02T08:15:00.000Z", Text: "Fix in review."},
		},
	}
}

func TestNormaliseGolden(t *testing.T) {
	n := New()
	g := goldie.New(t, goldie.WithNameSuffix(".golden"))

	t.Run("full task", func(t *testing.T) {
		item := n.Normalise(fullTask())
		g.Assert(t, "full_task", []byte(item.Content))
	})

	t.Run("minimal task", func(t *testing.T) {
		item := n.Normalise(&domain.Task{GID: "1", Name: "Fix login bug"})
		g.Assert(t, "minimal_task", []byte(item.Content))
	})
}

func TestNormaliseDeterministic(t *testing.T) {
	n := New()

	a := n.Normalise(fullTask())
	b := n.Normalise(fullTask())

	require.Equal(t, a.Content, b.Content)
	assert.Equal(t,
		domain.NewFingerprint(a.Content),
		domain.NewFingerprint(b.Content))
}

func TestNormaliseSectionOrder(t *testing.T) {
	n := New()
	item := n.Normalise(fullTask())

	title := "# Fix login bug"
	summary := "**Status:** Incomplete | **Assignee:** Dana Scully | **Due:** Mar 15, 2024 | **Tags:** auth, urgent"

	require.Contains(t, item.Content, title)
	require.Contains(t, item.Content, summary)
	require.Contains(t, item.Content, "## Description")
	require.Contains(t, item.Content, "## Comments")

	// Comments render chronologically, after the description.
	descIdx := strings.Index(item.Content, "## Description")
	commIdx := strings.Index(item.Content, "## Comments")
	first := strings.Index(item.Content, "**Fox Mulder** (Mar 1, 2024):")
	second := strings.Index(item.Content, "**Dana Scully** (Mar 2, 2024):")
	assert.Less(t, descIdx, commIdx)
	assert.Less(t, commIdx, first)
	assert.Less(t, first, second)
}

func TestNormaliseOmitsEmptyFields(t *testing.T) {
	n := New()
	item := n.Normalise(&domain.Task{GID: "1", Name: "Bare task"})

	assert.NotContains(t, item.Content, "Assignee")
	assert.NotContains(t, item.Content, "Due")
	assert.NotContains(t, item.Content, "Tags")
	assert.NotContains(t, item.Content, "## Description")
	assert.NotContains(t, item.Content, "## Comments")
}

func TestNormaliseCompletedStatus(t *testing.T) {
	n := New()
	item := n.Normalise(&domain.Task{
		GID:         "1",
		Name:        "Done task",
		CompletedAt: "2024-03-01T10:00:00.000Z",
	})

	assert.Contains(t, item.Content, "**Status:** Complete")
	assert.Equal(t, domain.StatusComplete, item.Metadata["status"])
}

func TestNormaliseMetadata(t *testing.T) {
	n := New()
	item := n.Normalise(fullTask())

	assert.Equal(t, domain.SourceTypeAsanaTask, item.SourceType)
	assert.Equal(t, "1201", item.SourceID)
	assert.Equal(t, "https://app.asana.com/0/100/1201", item.SourceURL)
	assert.Equal(t, "100", item.Metadata["project_id"])
	assert.Equal(t, "Engineering", item.Metadata["project_name"])
	assert.Equal(t, "Dana Scully", item.Metadata["assignee"])
	assert.Equal(t, domain.StatusIncomplete, item.Metadata["status"])
	assert.Equal(t, []string{"auth", "urgent"}, item.Metadata["tags"])
	assert.Equal(t, "2024-03-15", item.Metadata["due_on"])
	assert.Equal(t, 2, item.Metadata["comment_count"])
}

func TestNormaliseUnknownProjectFallback(t *testing.T) {
	n := New()
	item := n.Normalise(&domain.Task{GID: "1", Name: "Orphan"})

	assert.Equal(t, "", item.Metadata["project_id"])
	assert.Equal(t, "Unknown", item.Metadata["project_name"])
	assert.Nil(t, item.Metadata["assignee"])
	assert.Nil(t, item.Metadata["due_on"])
}

func TestNormaliseMetadataOnlyChangeKeepsContent(t *testing.T) {
	// Facet-only edits (here: assignee) leave the due date, description
	// and comments untouched but DO render into the summary line when
	// they are part of it. The boundary that matters for change
	// detection: fields absent from the rendered body never affect the
	// fingerprint.
	n := New()

	base := fullTask()
	edited := fullTask()
	edited.ModifiedAt = "2024-04-01T00:00:00.000Z" // rendered nowhere

	a := n.Normalise(base)
	b := n.Normalise(edited)

	assert.Equal(t, a.Content, b.Content)
	assert.Equal(t,
		domain.NewFingerprint(a.Content),
		domain.NewFingerprint(b.Content))
	assert.NotEqual(t, a.Metadata["modified_at"], b.Metadata["modified_at"])
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"RFC3339 with millis", "2024-03-01T10:30:00.000Z", "Mar 1, 2024"},
		{"RFC3339", "2024-03-01T10:30:00Z", "Mar 1, 2024"},
		{"date only", "2024-03-15", "Mar 15, 2024"},
		{"unparseable passes through", "next tuesday", "next tuesday"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDate(tt.in))
		})
	}
}
