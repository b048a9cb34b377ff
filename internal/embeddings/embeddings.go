package embeddings

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder turns text into vectors.
type Embedder interface {
	// EmbedDocuments returns one vector per text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([]Vector, error)
	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, text string) (Vector, error)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Empty, zero or mismatched vectors yield 0.
func CosineSimilarity(a, b Vector) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Scored is one candidate text with its similarity to a query.
type Scored struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// Rank embeds query and texts with e and returns the texts ordered by cosine
// similarity to the query, highest first. Ties keep input order.
func Rank(ctx context.Context, e Embedder, query string, texts []string) ([]Scored, error) {
	q, err := e.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	docs, err := e.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(docs) != len(texts) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d texts", len(docs), len(texts))
	}

	out := make([]Scored, len(texts))
	for i, text := range texts {
		out[i] = Scored{Index: i, Text: text, Score: CosineSimilarity(q, docs[i])}
	}
	slices.SortStableFunc(out, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out, nil
}
