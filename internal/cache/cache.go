package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// VectorCache stores embedding vectors by key.
type VectorCache interface {
	// GetVector retrieves a cached vector by key.
	// Returns nil if not found.
	GetVector(ctx context.Context, key string) ([]float32, error)

	// SetVector stores a vector with TTL. A zero TTL keeps the entry until evicted.
	SetVector(ctx context.Context, key string, vec []float32, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// GenerateVectorKey derives a cache key from the embedding model and the text.
// The text is hashed so arbitrarily long inputs give fixed-size keys.
func GenerateVectorKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(sum[:])
}
