package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"llm-kit/internal/cache"
	"llm-kit/internal/config"
	"llm-kit/internal/embeddings"
	"llm-kit/internal/llm"
	"llm-kit/internal/logger"
	"llm-kit/internal/schema"
)

// Deps bundles common runtime dependencies for the server.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Embedder embeddings.Embedder
	LLM      llm.Client
	Schemas  *schema.Registry
	Cache    cache.VectorCache
}

// Close releases connections held by the dependencies.
func (d Deps) Close() error {
	if d.Cache == nil {
		return nil
	}
	return d.Cache.Close()
}

// Build loads env, config, and shared components. A missing .env file is not an error.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	return BuildFromConfig(cfg, log)
}

// BuildFromConfig wires components for an already loaded configuration.
func BuildFromConfig(cfg config.Config, log *slog.Logger) (Deps, error) {
	vc, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	embedder, err := buildEmbedder(cfg, vc, log)
	if err != nil {
		_ = vc.Close()
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		_ = vc.Close()
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	registry, err := buildSchemas(cfg, log)
	if err != nil {
		_ = vc.Close()
		return Deps{}, fmt.Errorf("failed to load schemas: %w", err)
	}
	return Deps{
		Config:   cfg,
		Log:      log,
		Embedder: embedder,
		LLM:      llmClient,
		Schemas:  registry,
		Cache:    vc,
	}, nil
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.VectorCache, error) {
	switch cfg.CacheProvider {
	case "", "none":
		return cache.NewNoOpCache(), nil
	case "redis":
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, embedding cache disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNoOpCache(), nil
		}
		log.Info("using Redis embedding cache", "addr", cfg.RedisAddr)
		return rc, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: none, redis)", cfg.CacheProvider)
	}
}

func buildEmbedder(cfg config.Config, vc cache.VectorCache, log *slog.Logger) (embeddings.Embedder, error) {
	var (
		embedder embeddings.Embedder
		model    string
	)
	switch cfg.EmbeddingProvider {
	case "deterministic":
		e, err := embeddings.NewDeterministic(cfg.EmbeddingSize)
		if err != nil {
			return nil, err
		}
		embedder, model = e, fmt.Sprintf("deterministic-%d", cfg.EmbeddingSize)
		log.Info("using deterministic fake embedder", "size", cfg.EmbeddingSize)
	case "fake":
		e, err := embeddings.NewFake(cfg.EmbeddingSize)
		if err != nil {
			return nil, err
		}
		log.Info("using random fake embedder", "size", cfg.EmbeddingSize)
		// Caching would make a random embedder repeat itself.
		return e, nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
		e, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel), cfg.EmbeddingSize)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		embedder, model = e, cfg.EmbeddingModel
		log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: deterministic, fake, openai)", cfg.EmbeddingProvider)
	}

	if _, noop := vc.(*cache.NoOpCache); noop {
		return embedder, nil
	}
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	return embeddings.NewCached(embedder, vc, model, ttl, log), nil
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	case "fake":
		log.Info("using fake LLM client", "responses", len(cfg.FakeLLMResponses))
		return llm.NewFakeClient(cfg.FakeLLMResponses...), nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: openai, fake)", cfg.LLMProvider)
	}
}

func buildSchemas(cfg config.Config, log *slog.Logger) (*schema.Registry, error) {
	registry := schema.NewRegistry()
	if cfg.SchemaDir == "" {
		return registry, nil
	}
	loaded, err := schema.LoadDir(cfg.SchemaDir)
	if err != nil {
		return nil, err
	}
	for name, s := range loaded {
		if _, err := registry.Save(name, s); err != nil {
			return nil, err
		}
	}
	log.Info("loaded schemas", "dir", cfg.SchemaDir, "count", len(loaded))
	return registry, nil
}
