package outparse

import (
	"context"
	"fmt"

	"llm-kit/internal/llm"
)

// Generate appends p's format instructions to prompt, asks client once and
// parses the answer. Nothing is retried or re-prompted.
func Generate[T any](ctx context.Context, client llm.Client, p *Parser[T], prompt string) (T, error) {
	var zero T
	gens, err := client.Generate(ctx, prompt+"\n\n"+p.FormatInstructions())
	if err != nil {
		return zero, fmt.Errorf("generate: %w", err)
	}
	return p.ParseResult(gens)
}
