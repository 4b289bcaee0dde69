package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/services"
)

var syncAsync bool

var syncCmd = &cobra.Command{
	Use:   "sync [project-id...]",
	Short: "Synchronise projects into the knowledge base",
	Long: `Fetches all tasks in the given projects, embeds new or changed
content, and updates the knowledge base. Unchanged tasks are skipped.

Without arguments, the project list configured under sync.projects is
synchronised, the same list the scheduler runs.

With --async the sync is queued as a durable job and processed by the
worker inside a running "knowsync serve" instance.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSyncCmd,
}

func init() {
	syncCmd.Flags().BoolVar(&syncAsync, "async", false, "queue the sync instead of running it inline")
	rootCmd.AddCommand(syncCmd)
}

func runSyncCmd(cmd *cobra.Command, args []string) error {
	projectIDs := args
	if len(projectIDs) == 0 {
		if configStore == nil {
			return errors.New("no projects given and config store not configured")
		}
		projectIDs = configStore.GetStringSlice(services.ConfigKeySyncProjects)
		if len(projectIDs) == 0 {
			return fmt.Errorf("no projects given and none configured under %s", services.ConfigKeySyncProjects)
		}
	}

	if syncAsync {
		if jobQueue == nil {
			return errors.New("job queue not configured")
		}
		job, err := jobQueue.Enqueue(cmd.Context(), projectIDs)
		if err != nil {
			return fmt.Errorf("queueing sync: %w", err)
		}
		cmd.Printf("Queued sync job %s for %d project(s).\n", job.ID, len(projectIDs))
		return nil
	}

	if syncService == nil {
		return errors.New("sync service not configured")
	}

	cmd.Printf("Synchronising %d project(s)...\n", len(projectIDs))

	reports, err := syncService.SyncProjects(cmd.Context(), projectIDs)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncReports(cmd, reports)
	return nil
}

func printSyncReports(cmd *cobra.Command, reports []domain.SyncReport) {
	for i := range reports {
		r := &reports[i]
		cmd.Printf("  %s: %d synced, %d skipped", r.ProjectID, r.Synced, r.Skipped)
		if len(r.Errors) > 0 {
			cmd.Printf(", %d errors", len(r.Errors))
		}
		cmd.Println()
		for _, syncErr := range r.Errors {
			cmd.Printf("    %s: %s\n", syncErr.TaskID, syncErr.Error)
		}
	}

	summary := domain.Summarise(reports)
	cmd.Printf("Done: %d synced, %d skipped, %d errors across %d project(s).\n",
		summary.TotalSynced, summary.TotalSkipped, summary.TotalErrors, summary.TotalProjects)
}
