package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List workspaces and projects available at the task source",
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	if taskSource == nil {
		return errors.New("task source not configured")
	}

	ctx := cmd.Context()

	workspaces, err := taskSource.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("listing workspaces: %w", err)
	}

	projects, err := taskSource.ListProjects(ctx, "")
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	cmd.Println("Workspaces:")
	for i := range workspaces {
		cmd.Printf("  %s  %s\n", workspaces[i].GID, workspaces[i].Name)
	}

	cmd.Println("Projects:")
	for i := range projects {
		cmd.Printf("  %s  %s\n", projects[i].GID, projects[i].Name)
	}

	return nil
}
