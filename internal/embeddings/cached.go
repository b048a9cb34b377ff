package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"llm-kit/internal/cache"
)

// CachedEmbedder serves vectors from a cache and falls back to the wrapped
// embedder for misses. Cache failures are logged and never fail a call.
type CachedEmbedder struct {
	next  Embedder
	cache cache.VectorCache
	model string
	ttl   time.Duration
	log   *slog.Logger
}

// NewCached wraps next. model namespaces the cache keys.
func NewCached(next Embedder, c cache.VectorCache, model string, ttl time.Duration, log *slog.Logger) *CachedEmbedder {
	if log == nil {
		log = slog.Default()
	}
	return &CachedEmbedder{next: next, cache: c, model: model, ttl: ttl, log: log}
}

func (e *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec := e.lookup(ctx, text); vec != nil {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.next.EmbedDocuments(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, vec := range vecs {
		out[missIdx[j]] = vec
		e.store(ctx, missTexts[j], vec)
	}
	return out, nil
}

func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) (Vector, error) {
	if vec := e.lookup(ctx, text); vec != nil {
		return vec, nil
	}
	vec, err := e.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store(ctx, text, vec)
	return vec, nil
}

func (e *CachedEmbedder) lookup(ctx context.Context, text string) Vector {
	vec, err := e.cache.GetVector(ctx, cache.GenerateVectorKey(e.model, text))
	if err != nil {
		e.log.Warn("embedding cache read failed", "err", err)
		return nil
	}
	if vec == nil {
		return nil
	}
	return Vector(vec)
}

func (e *CachedEmbedder) store(ctx context.Context, text string, vec Vector) {
	if err := e.cache.SetVector(ctx, cache.GenerateVectorKey(e.model, text), vec, e.ttl); err != nil {
		e.log.Warn("embedding cache write failed", "err", err)
	}
}
