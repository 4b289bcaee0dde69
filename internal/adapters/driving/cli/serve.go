package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/knowsync/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the background worker and scheduler",
	Long: `Starts the long-running server process: the HTTP API for the widget
and operator tooling, the durable job queue worker, the recurring sync
scheduler, and a config file watcher for hot reload.

All components stop gracefully when the process receives an interrupt.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address for the HTTP API (default from environment, else :8080)")
	rootCmd.AddCommand(serveCmd)
}

// effectiveAddr resolves the listen address: the --addr flag wins, then
// the injected environment address, then :8080.
func effectiveAddr(cmd *cobra.Command) string {
	if cmd.Flags().Changed("addr") && serveAddr != "" {
		return serveAddr
	}
	if listenAddr != "" {
		return listenAddr
	}
	return ":8080"
}

func runServe(cmd *cobra.Command, _ []string) error {
	if syncService == nil || answerService == nil {
		return errors.New("sync and answer services not configured")
	}

	server, err := httpapi.NewServer(httpapi.Config{
		Sync:           syncService,
		Answer:         answerService,
		Source:         taskSource,
		Store:          knowledgeStore,
		Embedder:       embeddingService,
		Queue:          jobQueue,
		AllowedOrigins: allowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("building HTTP server: %w", err)
	}

	ctx := cmd.Context()

	if workerRun != nil {
		go func() {
			if err := workerRun(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				fmt.Fprintf(os.Stderr, "worker stopped: %v\n", err)
			}
		}()
	}

	if schedulerConfig.Enabled && scheduler != nil {
		go func() {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				fmt.Fprintf(os.Stderr, "scheduler stopped: %v\n", err)
			}
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "scheduler stop error: %v\n", err)
			}
		}()
	}

	if configWatch != nil {
		go func() {
			if err := configWatch(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				fmt.Fprintf(os.Stderr, "config watcher stopped: %v\n", err)
			}
		}()
	}

	return server.Run(ctx, effectiveAddr(cmd))
}
