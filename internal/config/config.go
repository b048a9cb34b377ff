package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	// Server
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "text"

	// Request body limit
	MaxBodySize int64 `env:"MAX_BODY_SIZE" envDefault:"1048576"` // 1MB in bytes

	// Embeddings
	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"deterministic"` // "deterministic", "fake" (random) or "openai"
	EmbeddingSize     int    `env:"EMBEDDING_SIZE" envDefault:"1536"`
	EmbeddingModel    string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`

	// LLM
	LLMProvider      string   `env:"LLM_PROVIDER" envDefault:"openai"` // "openai" or "fake" (replays FAKE_LLM_RESPONSES)
	OpenAIKey        string   `env:"OPENAI_API_KEY"`
	LLMModel         string   `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	FakeLLMResponses []string `env:"FAKE_LLM_RESPONSES" envSeparator:"|"`

	// Embedding cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Schemas preloaded at startup; empty disables loading
	SchemaDir string `env:"SCHEMA_DIR"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
