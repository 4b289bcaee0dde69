// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// Config is the immutable process configuration, resolved once at
// startup. Operator-tunable settings that change at runtime live in the
// TOML config store instead.
type Config struct {
	// AsanaAccessToken authenticates against the Asana API.
	AsanaAccessToken string

	// OpenAIAPIKey authenticates embedding and chat requests.
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the OpenAI API root. Useful for proxies
	// and tests.
	OpenAIBaseURL string

	// EmbeddingModel and ChatModel override the default models.
	EmbeddingModel string
	ChatModel      string

	// DataDir holds the SQLite database. Empty means the default under
	// the user's home directory.
	DataDir string

	// ConfigDir holds the TOML config file. Empty means the default.
	ConfigDir string

	// ListenAddr is the HTTP API listen address.
	ListenAddr string

	// AllowedOrigins is the CORS allow-list for browser callers.
	AllowedOrigins []string

	// Scheduler controls the recurring background sync.
	Scheduler domain.SchedulerConfig
}

// Load resolves configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win over .env entries.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AsanaAccessToken: os.Getenv("ASANA_ACCESS_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		EmbeddingModel:   os.Getenv("KNOWSYNC_EMBEDDING_MODEL"),
		ChatModel:        os.Getenv("KNOWSYNC_CHAT_MODEL"),
		DataDir:          os.Getenv("KNOWSYNC_DATA_DIR"),
		ConfigDir:        os.Getenv("KNOWSYNC_CONFIG_DIR"),
		ListenAddr:       envOr("KNOWSYNC_ADDR", ":8080"),
		Scheduler:        domain.DefaultSchedulerConfig(),
	}

	if origins := os.Getenv("KNOWSYNC_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if v := os.Getenv("KNOWSYNC_SYNC_ENABLED"); v == "false" || v == "0" {
		cfg.Scheduler.Enabled = false
	}
	if v := os.Getenv("KNOWSYNC_SYNC_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil && interval > 0 {
			cfg.Scheduler.Interval = interval
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
