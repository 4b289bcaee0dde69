package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
	"github.com/custodia-labs/knowsync/internal/logger"
)

// historyRetention is how many results per task the scheduler keeps.
const historyRetention = 100

// ConfigKeySyncProjects is the config store key holding the project GIDs
// the scheduled sync covers. The key is read on every run, so edits to
// the config file take effect without a restart.
const ConfigKeySyncProjects = "sync.projects"

// Scheduler manages recurring background sync execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	sync     driving.SyncService
	projects driven.ConfigStore

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	syncService driving.SyncService,
	projects driven.ConfigStore,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		sync:     syncService,
		projects: projects,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures the recurring sync task exists in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}
	return s.ensureTask(ctx, domain.TaskIDProjectSync, "Project Sync")
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: s.config.Interval,
			Enabled:  s.config.Enabled,
			NextRun:  time.Now().Add(s.config.Interval),
		}
	} else {
		if task.Interval != s.config.Interval {
			task.Interval = s.config.Interval
			// Recalculate next run from now
			task.NextRun = time.Now().Add(s.config.Interval)
		}
		task.Enabled = s.config.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	// Use a 1-minute ticker to check for due tasks
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || task.NextRun.Before(now) || task.NextRun.Equal(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDProjectSync:
			result.ItemsProcessed, err = s.runProjectSync(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		// Update task state
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runProjectSync syncs the operator-configured project list and returns
// the number of tasks processed (synced plus skipped).
func (s *Scheduler) runProjectSync(ctx context.Context) (int, error) {
	projectIDs := s.projects.GetStringSlice(ConfigKeySyncProjects)
	if len(projectIDs) == 0 {
		logger.Info("scheduler: no projects configured, nothing to sync")
		return 0, nil
	}

	reports, err := s.sync.SyncProjects(ctx, projectIDs)
	if err != nil {
		return 0, err
	}

	summary := domain.Summarise(reports)
	logger.Info("scheduled sync: %d projects, %d synced, %d skipped, %d errors",
		summary.TotalProjects, summary.TotalSynced, summary.TotalSkipped, summary.TotalErrors)
	return summary.TotalSynced + summary.TotalSkipped, nil
}
