// Command knowsync is the composition root: it wires the adapters to
// the core services and hands control to the command tree.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	configfile "github.com/custodia-labs/knowsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/knowsync/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/custodia-labs/knowsync/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/knowsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/knowsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/knowsync/internal/config"
	"github.com/custodia-labs/knowsync/internal/connectors/asana"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
	"github.com/custodia-labs/knowsync/internal/core/services"
	asananorm "github.com/custodia-labs/knowsync/internal/normalisers/asana"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "knowsync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close() //nolint:errcheck

	configStore, err := configfile.NewConfigStore(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	svc := &cli.Services{
		Store:           store.KnowledgeStore(),
		Queue:           store.JobQueue(),
		Config:          configStore,
		SchedulerConfig: cfg.Scheduler,
		AllowedOrigins:  cfg.AllowedOrigins,
		ListenAddr:      cfg.ListenAddr,
		ConfigWatch:     configStore.Watch,
	}

	// The task source and the OpenAI services are optional at startup so
	// commands that do not need them keep working without credentials.
	var source driven.TaskSource
	if cfg.AsanaAccessToken != "" {
		source, err = asana.NewClient(asana.Config{AccessToken: cfg.AsanaAccessToken})
		if err != nil {
			return fmt.Errorf("building asana client: %w", err)
		}
		svc.Source = source
	}

	var embedder driven.EmbeddingService
	var llm driven.LLMService
	if cfg.OpenAIAPIKey != "" {
		embedder, err = openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.EmbeddingModel,
		})
		if err != nil {
			return fmt.Errorf("building embedding service: %w", err)
		}
		svc.Embedder = embedder

		llm, err = llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.ChatModel,
		})
		if err != nil {
			return fmt.Errorf("building llm service: %w", err)
		}
	}

	if source != nil && embedder != nil {
		syncEngine := services.NewSyncEngine(source, asananorm.New(), embedder, store.KnowledgeStore())
		svc.Sync = syncEngine
		svc.WorkerRun = services.NewWorker(store.JobQueue(), syncEngine).Run
		svc.Schedule = services.NewScheduler(cfg.Scheduler, store.SchedulerStore(), syncEngine, configStore)
	}

	if embedder != nil && llm != nil {
		svc.Answer = services.NewRetrievalEngine(embedder, store.KnowledgeStore(), llm, store.InteractionLog())
	}

	cli.SetServices(svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}
