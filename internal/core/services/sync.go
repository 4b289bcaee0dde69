package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
	"github.com/custodia-labs/knowsync/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncService = (*SyncEngine)(nil)

// SyncEngine ingests tasks from the source into the knowledge store.
//
// A run is strictly sequential: one task at a time, in fetch order. The
// batch fetch is all-or-nothing; per-item failures after it are isolated
// so one bad task never aborts the rest of the run.
type SyncEngine struct {
	source     driven.TaskSource
	normaliser driven.Normaliser
	embedder   driven.EmbeddingService
	store      driven.KnowledgeStore

	mu      sync.Mutex
	running map[string]bool
}

// NewSyncEngine creates a sync engine.
func NewSyncEngine(
	source driven.TaskSource,
	normaliser driven.Normaliser,
	embedder driven.EmbeddingService,
	store driven.KnowledgeStore,
) *SyncEngine {
	return &SyncEngine{
		source:     source,
		normaliser: normaliser,
		embedder:   embedder,
		store:      store,
		running:    make(map[string]bool),
	}
}

// SyncProject synchronises all tasks in one project.
//
// Ingestion failures land in the report, never in the error return: the
// only error is domain.ErrSyncInProgress when the same project is
// already being synced by this process.
func (e *SyncEngine) SyncProject(ctx context.Context, projectID string) (*domain.SyncReport, error) {
	if projectID == "" {
		return nil, domain.ErrInvalidInput
	}

	if !e.tryAcquire(projectID) {
		return nil, domain.ErrSyncInProgress
	}
	defer e.release(projectID)

	report := &domain.SyncReport{
		ProjectID: projectID,
		StartedAt: time.Now().UTC(),
	}

	tasks, err := e.source.ListTasks(ctx, projectID)
	if err != nil {
		// Batch fetch is all-or-nothing: one report-level entry.
		report.Errors = append(report.Errors, domain.SyncError{
			TaskID: domain.ReportErrorID,
			Error:  err.Error(),
		})
		report.CompletedAt = time.Now().UTC()
		return report, nil
	}

	logger.Info("syncing project %s: %d tasks", projectID, len(tasks))

	for i := range tasks {
		outcome, err := e.processTask(ctx, &tasks[i])
		if err != nil {
			report.Errors = append(report.Errors, domain.SyncError{
				TaskID: tasks[i].GID,
				Error:  err.Error(),
			})
			continue
		}
		switch outcome {
		case domain.OutcomeSynced:
			report.Synced++
		case domain.OutcomeSkipped:
			report.Skipped++
		}
	}

	report.CompletedAt = time.Now().UTC()
	logger.Info("project %s: %d synced, %d skipped, %d errors",
		projectID, report.Synced, report.Skipped, len(report.Errors))
	return report, nil
}

// SyncProjects synchronises several projects sequentially, one report
// per project. A project already being synced yields a report with a
// single report-level error instead of aborting the remaining projects.
func (e *SyncEngine) SyncProjects(ctx context.Context, projectIDs []string) ([]domain.SyncReport, error) {
	if len(projectIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}

	reports := make([]domain.SyncReport, 0, len(projectIDs))
	for _, projectID := range projectIDs {
		report, err := e.SyncProject(ctx, projectID)
		if err != nil {
			now := time.Now().UTC()
			reports = append(reports, domain.SyncReport{
				ProjectID:   projectID,
				StartedAt:   now,
				CompletedAt: now,
				Errors: []domain.SyncError{{
					TaskID: domain.ReportErrorID,
					Error:  err.Error(),
				}},
			})
			continue
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// SyncTask synchronises a single task by GID within a project.
func (e *SyncEngine) SyncTask(ctx context.Context, projectID, taskID string) (domain.SyncOutcome, error) {
	if projectID == "" || taskID == "" {
		return "", domain.ErrInvalidInput
	}

	task, err := e.source.GetTask(ctx, projectID, taskID)
	if err != nil {
		return "", err
	}

	return e.processTask(ctx, task)
}

// processTask runs the normalise, fingerprint, lookup, write pipeline
// for one task.
func (e *SyncEngine) processTask(ctx context.Context, task *domain.Task) (domain.SyncOutcome, error) {
	item := e.normaliser.Normalise(task)
	hash := domain.NewFingerprint(item.Content)

	existing, err := e.store.GetBySource(ctx, item.SourceType, item.SourceID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	if existing != nil {
		if existing.ContentHash == hash {
			logger.Debug("task %s unchanged, skipping", item.SourceID)
			return domain.OutcomeSkipped, nil
		}

		embedding, err := e.embedder.Embed(ctx, item.Content)
		if err != nil {
			return "", err
		}
		update := &domain.EntryUpdate{
			Title:       item.Title,
			Content:     item.Content,
			SourceURL:   item.SourceURL,
			Metadata:    item.Metadata,
			ContentHash: hash,
			Embedding:   embedding,
			IndexedAt:   time.Now().UTC(),
		}
		if err := e.store.Update(ctx, existing.ID, update); err != nil {
			return "", err
		}
		logger.Debug("task %s updated", item.SourceID)
		return domain.OutcomeSynced, nil
	}

	embedding, err := e.embedder.Embed(ctx, item.Content)
	if err != nil {
		return "", err
	}
	entry := &domain.KnowledgeEntry{
		SourceType:  item.SourceType,
		SourceID:    item.SourceID,
		SourceURL:   item.SourceURL,
		Title:       item.Title,
		Content:     item.Content,
		Metadata:    item.Metadata,
		ContentHash: hash,
		Embedding:   embedding,
		IndexedAt:   time.Now().UTC(),
	}
	if _, err := e.store.Insert(ctx, entry); err != nil {
		return "", err
	}
	logger.Debug("task %s inserted", item.SourceID)
	return domain.OutcomeSynced, nil
}

// tryAcquire marks a project as being synced. Returns false when a sync
// for the project is already running in this process.
func (e *SyncEngine) tryAcquire(projectID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[projectID] {
		return false
	}
	e.running[projectID] = true
	return true
}

// release clears the running flag for a project.
func (e *SyncEngine) release(projectID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, projectID)
}
