package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClientCycles(t *testing.T) {
	c := NewFakeClient("one", "two")
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		gens, err := c.Generate(ctx, "p")
		require.NoError(t, err)
		require.Len(t, gens, 1)
		got = append(got, gens[0].Text)
	}
	assert.Equal(t, []string{"one", "two", "one"}, got)
	assert.Equal(t, []string{"p", "p", "p"}, c.Prompts())
}

func TestFakeClientWithoutResponses(t *testing.T) {
	_, err := NewFakeClient().Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNoResponses)
}

func TestOpenAIClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "user", body.Messages[1].Role)
		assert.Equal(t, "tell me a joke", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"setup\":\"a\",\"punchline\":\"b\"}"}
			}]
		}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	gens, err := c.Generate(context.Background(), "tell me a joke")
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, `{"setup":"a","punchline":"b"}`, gens[0].Text)
	assert.Equal(t, "stop", gens[0].Info["finish_reason"])
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("", "")
	assert.Error(t, err)
}
