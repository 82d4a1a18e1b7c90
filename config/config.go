// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config carries everything needed to assemble the assistant.
type Config struct {
	// LLM providers. EmbeddingProvider selects who embeds the document
	// corpus: "openai" (the default) or "google", which reuses the Gemini
	// credentials. An empty EmbeddingModel selects the provider's default.
	GoogleAPIKey      string `env:"GOOGLE_API_KEY"`
	GeminiModel       string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"openai"`
	EmbeddingModel    string `env:"EMBEDDING_MODEL"`

	// Database. When DatabaseURL is set the assistant queries Postgres,
	// otherwise the local SQLite file.
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/sales.db"`

	// Knowledge base.
	DocsDir string `env:"DOCS_DIR" envDefault:"data/docs"`
	RAGTopK int    `env:"RAG_TOP_K" envDefault:"3"`

	// Chat history. An empty RedisAddr disables history recording.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	HistoryTTL    time.Duration `env:"HISTORY_TTL" envDefault:"24h"`

	// Server.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the assistant cannot run without.
func (c *Config) Validate() error {
	if c.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY is required")
	}
	switch c.EmbeddingProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER is openai")
		}
	case "google":
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be openai or google, got %q", c.EmbeddingProvider)
	}
	if c.RAGTopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be positive, got %d", c.RAGTopK)
	}
	return nil
}

// UsePostgres reports whether the database layer should connect to Postgres
// instead of SQLite.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// HistoryEnabled reports whether chat history recording is configured.
func (c *Config) HistoryEnabled() bool {
	return c.RedisAddr != ""
}
