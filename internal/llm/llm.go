package llm

import "context"

// Generation is one candidate completion returned by a model.
type Generation struct {
	Text string         `json:"text"`
	Info map[string]any `json:"info,omitempty"`
}

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	// Generate returns at least one generation for prompt on success.
	Generate(ctx context.Context, prompt string) ([]Generation, error)
}
