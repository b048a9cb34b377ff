package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Blank out anything the host environment might set.
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "MAX_BODY_SIZE", "EMBEDDING_PROVIDER", "EMBEDDING_SIZE",
		"EMBEDDING_MODEL", "LLM_PROVIDER", "LLM_MODEL", "CACHE_PROVIDER", "REDIS_ADDR", "CACHE_TTL",
	} {
		t.Setenv(key, "") // restores the original value after the test
		os.Unsetenv(key)
	}

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "json"},
		{"MaxBodySize", cfg.MaxBodySize, int64(1048576)},
		{"EmbeddingProvider", cfg.EmbeddingProvider, "deterministic"},
		{"EmbeddingSize", cfg.EmbeddingSize, 1536},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
		{"LLMProvider", cfg.LLMProvider, "openai"},
		{"LLMModel", cfg.LLMModel, "gpt-4o-mini"},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"RedisAddr", cfg.RedisAddr, "localhost:6379"},
		{"CacheTTL", cfg.CacheTTL, 3600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EMBEDDING_PROVIDER", "fake")
	t.Setenv("EMBEDDING_SIZE", "8")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.EmbeddingProvider != "fake" {
		t.Errorf("expected embedding provider 'fake', got %s", cfg.EmbeddingProvider)
	}
	if cfg.EmbeddingSize != 8 {
		t.Errorf("expected embedding size 8, got %d", cfg.EmbeddingSize)
	}
}

func TestLoadFakeResponses(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "fake")
	t.Setenv("FAKE_LLM_RESPONSES", `{"a":1}|{"a":2}`)

	cfg := Load()

	if cfg.LLMProvider != "fake" {
		t.Errorf("expected LLM provider 'fake', got %s", cfg.LLMProvider)
	}
	if len(cfg.FakeLLMResponses) != 2 || cfg.FakeLLMResponses[1] != `{"a":2}` {
		t.Errorf("unexpected fake responses %v", cfg.FakeLLMResponses)
	}
}
