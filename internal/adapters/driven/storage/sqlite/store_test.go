package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func testEntry(sourceID string, embedding []float32) *domain.KnowledgeEntry {
	return &domain.KnowledgeEntry{
		SourceType:  domain.SourceTypeAsanaTask,
		SourceID:    sourceID,
		SourceURL:   "https://app.asana.com/0/P1/" + sourceID,
		Title:       "Task " + sourceID,
		Content:     "# Task " + sourceID,
		Metadata:    map[string]any{"project_id": "P1", "status": domain.StatusIncomplete},
		ContentHash: domain.NewFingerprint("# Task " + sourceID),
		Embedding:   embedding,
		IndexedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestNewStoreErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStoreSuccess(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "knowsync.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	assert.NoError(t, store.db.Ping())
}

func TestMigrationsAreIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same directory must not re-run applied migrations.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

// ==================== Knowledge Store Tests ====================

func TestKnowledgeStoreInsertAndGetBySource(t *testing.T) {
	store := setupTestStore(t)
	ks := store.KnowledgeStore()
	ctx := context.Background()

	entry := testEntry("T1", []float32{0.1, 0.2, 0.3})
	inserted, err := ks.Insert(ctx, entry)
	require.NoError(t, err)
	assert.Positive(t, inserted.ID)

	got, err := ks.GetBySource(ctx, domain.SourceTypeAsanaTask, "T1")
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, got.ID)
	assert.Equal(t, entry.Title, got.Title)
	assert.Equal(t, entry.Content, got.Content)
	assert.Equal(t, entry.ContentHash, got.ContentHash)
	assert.Equal(t, entry.Embedding, got.Embedding)
	assert.Equal(t, "P1", got.Metadata["project_id"])
}

func TestKnowledgeStoreGetBySourceNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.KnowledgeStore().GetBySource(context.Background(), domain.SourceTypeAsanaTask, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKnowledgeStoreUpdate(t *testing.T) {
	store := setupTestStore(t)
	ks := store.KnowledgeStore()
	ctx := context.Background()

	inserted, err := ks.Insert(ctx, testEntry("T1", []float32{0.1, 0.2}))
	require.NoError(t, err)

	update := &domain.EntryUpdate{
		Title:       "Task T1 renamed",
		Content:     "# Task T1 renamed",
		SourceURL:   "https://app.asana.com/0/P1/T1",
		Metadata:    map[string]any{"status": domain.StatusComplete},
		ContentHash: domain.NewFingerprint("# Task T1 renamed"),
		Embedding:   []float32{0.4, 0.5},
		IndexedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, ks.Update(ctx, inserted.ID, update))

	got, err := ks.GetBySource(ctx, domain.SourceTypeAsanaTask, "T1")
	require.NoError(t, err)
	assert.Equal(t, "Task T1 renamed", got.Title)
	assert.Equal(t, update.ContentHash, got.ContentHash)
	assert.Equal(t, []float32{0.4, 0.5}, got.Embedding)
	assert.Equal(t, domain.StatusComplete, got.Metadata["status"])
}

func TestKnowledgeStoreUpdateMissingEntry(t *testing.T) {
	store := setupTestStore(t)

	err := store.KnowledgeStore().Update(context.Background(), 9999, &domain.EntryUpdate{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKnowledgeStoreList(t *testing.T) {
	store := setupTestStore(t)
	ks := store.KnowledgeStore()
	ctx := context.Background()

	older := testEntry("T1", []float32{0.1})
	older.IndexedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	_, err := ks.Insert(ctx, older)
	require.NoError(t, err)

	newer := testEntry("T2", []float32{0.2})
	_, err = ks.Insert(ctx, newer)
	require.NoError(t, err)

	entries, err := ks.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recently indexed first, embeddings omitted.
	assert.Equal(t, "T2", entries[0].SourceID)
	assert.Equal(t, "T1", entries[1].SourceID)
	assert.Nil(t, entries[0].Embedding)
}

func TestKnowledgeStoreSearch(t *testing.T) {
	store := setupTestStore(t)
	ks := store.KnowledgeStore()
	ctx := context.Background()

	// Orthogonal vs aligned vectors give a clean similarity split.
	_, err := ks.Insert(ctx, testEntry("aligned", []float32{1, 0, 0}))
	require.NoError(t, err)
	_, err = ks.Insert(ctx, testEntry("diagonal", []float32{1, 1, 0}))
	require.NoError(t, err)
	_, err = ks.Insert(ctx, testEntry("orthogonal", []float32{0, 0, 1}))
	require.NoError(t, err)

	hits, err := ks.Search(ctx, []float32{1, 0, 0}, 0.3, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "aligned", hits[0].Entry.SourceID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "diagonal", hits[1].Entry.SourceID)
	assert.InDelta(t, 0.7071, hits[1].Similarity, 1e-3)
}

func TestKnowledgeStoreSearchHonoursLimit(t *testing.T) {
	store := setupTestStore(t)
	ks := store.KnowledgeStore()
	ctx := context.Background()

	for _, id := range []string{"T1", "T2", "T3"} {
		_, err := ks.Insert(ctx, testEntry(id, []float32{1, 0}))
		require.NoError(t, err)
	}

	hits, err := ks.Search(ctx, []float32{1, 0}, 0.3, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestKnowledgeStoreSearchEmptyBelowFloor(t *testing.T) {
	store := setupTestStore(t)
	ks := store.KnowledgeStore()
	ctx := context.Background()

	_, err := ks.Insert(ctx, testEntry("orthogonal", []float32{0, 1}))
	require.NoError(t, err)

	hits, err := ks.Search(ctx, []float32{1, 0}, 0.3, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKnowledgeStoreSearchRejectsMismatchedDimensions(t *testing.T) {
	store := setupTestStore(t)
	ks := store.KnowledgeStore()
	ctx := context.Background()

	_, err := ks.Insert(ctx, testEntry("T1", []float32{1, 0}))
	require.NoError(t, err)

	// A query embedded with a different model must fail loudly, not
	// score zero and vanish below the floor.
	hits, err := ks.Search(ctx, []float32{1, 0, 0}, 0.3, 5)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "dimension")
	assert.Nil(t, hits)
}

// ==================== Interaction Log Tests ====================

func TestInteractionLogRecord(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.InteractionLog().Record(ctx, &domain.Interaction{
		SessionID: "session-1",
		Question:  "What is broken?",
		Answer:    "The login flow.",
		Sources:   []domain.AnswerSource{{Title: "Fix login bug", URL: "https://example.com/T1"}},
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM interactions").Scan(&count))
	assert.Equal(t, 1, count)
}

// ==================== Job Queue Tests ====================

func TestJobQueueEnqueueDequeue(t *testing.T) {
	store := setupTestStore(t)
	queue := store.JobQueue()
	ctx := context.Background()

	job, err := queue.Enqueue(ctx, []string{"P1", "P2"})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, domain.DefaultJobMaxAttempts, job.MaxAttempts)

	claimed, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, domain.JobStatusRunning, claimed.Status)
	assert.Equal(t, 1, claimed.Attempts)
	assert.Equal(t, []string{"P1", "P2"}, claimed.ProjectIDs)
}

func TestJobQueueDequeueEmpty(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.JobQueue().Dequeue(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobQueueDequeueOldestFirst(t *testing.T) {
	store := setupTestStore(t)
	queue := store.JobQueue()
	ctx := context.Background()

	first, err := queue.Enqueue(ctx, []string{"P1"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = queue.Enqueue(ctx, []string{"P2"})
	require.NoError(t, err)

	claimed, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, claimed.ID)
}

func TestJobQueueComplete(t *testing.T) {
	store := setupTestStore(t)
	queue := store.JobQueue()
	ctx := context.Background()

	job, err := queue.Enqueue(ctx, []string{"P1"})
	require.NoError(t, err)
	_, err = queue.Dequeue(ctx)
	require.NoError(t, err)

	require.NoError(t, queue.Complete(ctx, job.ID))

	got, err := queue.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
}

func TestJobQueueRecoversRunningJobsOnReopen(t *testing.T) {
	tempDir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(tempDir)
	require.NoError(t, err)

	job, err := store.JobQueue().Enqueue(ctx, []string{"P1"})
	require.NoError(t, err)
	claimed, err := store.JobQueue().Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.JobStatusRunning, claimed.Status)

	// Close with the job still running, as a crashed process would.
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	reclaimed, err := store.JobQueue().Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.ID, reclaimed.ID)
	assert.Equal(t, domain.JobStatusRunning, reclaimed.Status)
	assert.Equal(t, 2, reclaimed.Attempts)
}

func TestJobQueueFailRetriesThenExhausts(t *testing.T) {
	store := setupTestStore(t)
	queue := store.JobQueue()
	ctx := context.Background()

	job, err := queue.Enqueue(ctx, []string{"P1"})
	require.NoError(t, err)

	// First two failures return the job to pending.
	for i := 0; i < domain.DefaultJobMaxAttempts-1; i++ {
		_, err = queue.Dequeue(ctx)
		require.NoError(t, err)
		require.NoError(t, queue.Fail(ctx, job.ID, "source unreachable"))

		got, err := queue.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPending, got.Status)
		assert.Equal(t, "source unreachable", got.LastError)
	}

	// The final failure exhausts the budget.
	_, err = queue.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, queue.Fail(ctx, job.ID, "source unreachable"))

	got, err := queue.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, domain.DefaultJobMaxAttempts, got.Attempts)
}
