package embeddings

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"math/rand/v2"
	"sync"
)

// seedModulus bounds derived seeds to [0, 10^8).
var seedModulus = big.NewInt(100_000_000)

// FakeEmbedder samples every vector from a standard normal distribution.
// Two calls with the same text almost never return the same vector.
// Only meant for tests; it is not an embedding model.
type FakeEmbedder struct {
	size int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFake returns a random embedder producing vectors of the given size.
func NewFake(size int) (*FakeEmbedder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("embedding size must be positive, got %d", size)
	}
	return &FakeEmbedder{
		size: size,
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}, nil
}

// Size reports the vector length.
func (e *FakeEmbedder) Size() int { return e.size }

func (e *FakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([]Vector, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Vector, len(texts))
	for i := range texts {
		out[i] = normalVector(e.rng, e.size)
	}
	return out, nil
}

func (e *FakeEmbedder) EmbedQuery(_ context.Context, _ string) (Vector, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return normalVector(e.rng, e.size), nil
}

// DeterministicEmbedder samples from a normal distribution seeded by the
// text, so equal texts always map to equal vectors. Each call builds its own
// generator; nothing is shared between calls.
type DeterministicEmbedder struct {
	size int
}

// NewDeterministic returns a seeded embedder producing vectors of the given size.
func NewDeterministic(size int) (*DeterministicEmbedder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("embedding size must be positive, got %d", size)
	}
	return &DeterministicEmbedder{size: size}, nil
}

// Size reports the vector length.
func (e *DeterministicEmbedder) Size() int { return e.size }

func (e *DeterministicEmbedder) EmbedDocuments(_ context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *DeterministicEmbedder) EmbedQuery(_ context.Context, text string) (Vector, error) {
	return e.embed(text), nil
}

func (e *DeterministicEmbedder) embed(text string) Vector {
	seed := Seed(text)
	return normalVector(rand.New(rand.NewPCG(seed, seed)), e.size)
}

// Seed derives the generator seed for text: the SHA-256 digest read as a
// big-endian integer, reduced modulo 10^8.
func Seed(text string) uint64 {
	sum := sha256.Sum256([]byte(text))
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, seedModulus).Uint64()
}

func normalVector(rng *rand.Rand, size int) Vector {
	vec := make(Vector, size)
	for i := range vec {
		vec[i] = float32(rng.NormFloat64())
	}
	return vec
}
