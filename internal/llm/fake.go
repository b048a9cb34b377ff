package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrNoResponses is returned by a FakeClient built without responses.
var ErrNoResponses = errors.New("fake llm: no responses configured")

// FakeClient replays a fixed list of responses in order, wrapping around at
// the end. Safe for concurrent use.
type FakeClient struct {
	mu        sync.Mutex
	responses []string
	next      int
	prompts   []string
}

func NewFakeClient(responses ...string) *FakeClient {
	return &FakeClient{responses: responses}
}

func (c *FakeClient) Generate(_ context.Context, prompt string) ([]Generation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.responses) == 0 {
		return nil, ErrNoResponses
	}
	text := c.responses[c.next%len(c.responses)]
	c.next++
	return []Generation{{Text: text, Info: map[string]any{"finish_reason": "stop"}}}, nil
}

// Prompts returns every prompt seen so far.
func (c *FakeClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}
