// Package cli provides the cobra command tree for the knowsync binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
	"github.com/custodia-labs/knowsync/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Injected services. Commands check for nil so the tree stays testable
// without a full composition root.
var (
	syncService      driving.SyncService
	answerService    driving.AnswerService
	scheduler        driving.Scheduler
	taskSource       driven.TaskSource
	knowledgeStore   driven.KnowledgeStore
	embeddingService driven.EmbeddingService
	jobQueue         driven.JobQueue
	configStore      driven.ConfigStore

	schedulerConfig domain.SchedulerConfig
	allowedOrigins  []string
	listenAddr      string
	configWatch     func(ctx context.Context) error
	workerRun       func(ctx context.Context) error
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "knowsync",
	Short: "Sync tasks into a searchable knowledge base and answer questions about them",
	Long: `knowsync incrementally synchronises tasks from a task source into a
local vector knowledge base and answers natural-language questions
grounded in that knowledge base.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services aggregates everything the commands need.
// Nil fields disable the commands that depend on them.
type Services struct {
	Sync     driving.SyncService
	Answer   driving.AnswerService
	Schedule driving.Scheduler
	Source   driven.TaskSource
	Store    driven.KnowledgeStore
	Embedder driven.EmbeddingService
	Queue    driven.JobQueue
	Config   driven.ConfigStore

	SchedulerConfig domain.SchedulerConfig
	AllowedOrigins  []string

	// ListenAddr is the HTTP listen address used by serve when its
	// --addr flag is not given.
	ListenAddr string

	// ConfigWatch hot-reloads the config file; WorkerRun drains the job
	// queue. Both block until their context is cancelled.
	ConfigWatch func(ctx context.Context) error
	WorkerRun   func(ctx context.Context) error
}

// SetServices injects the composed services into the command tree.
func SetServices(s *Services) {
	syncService = s.Sync
	answerService = s.Answer
	scheduler = s.Schedule
	taskSource = s.Source
	knowledgeStore = s.Store
	embeddingService = s.Embedder
	jobQueue = s.Queue
	configStore = s.Config
	schedulerConfig = s.SchedulerConfig
	allowedOrigins = s.AllowedOrigins
	listenAddr = s.ListenAddr
	configWatch = s.ConfigWatch
	workerRun = s.WorkerRun
}

// SetVersion overrides the build-time version string.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
