package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"llm-kit/internal/retry"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	model  openai.ChatModel
	system string
	client *openai.Client
}

const (
	defaultChatTimeout     = 30 * time.Second
	defaultChatTemperature = 0.2
	chatAttempts           = 3
	chatBackoff            = 200 * time.Millisecond

	defaultSystemPrompt = "You are a precise assistant. Follow the output format instructions exactly."
)

// NewOpenAIClient builds a client with defaults against api.openai.com.
func NewOpenAIClient(apiKey string, model openai.ChatModel, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	cli := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIClient{
		model:  model,
		system: defaultSystemPrompt,
		client: &cli,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) ([]Generation, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("nil openai client")
	}
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    buildMessages(c.system, prompt),
		Temperature: openai.Float(defaultChatTemperature),
	}

	var resp *openai.ChatCompletion
	err := retry.Do(ctx, chatAttempts, chatBackoff, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
		defer cancel()
		var err error
		resp, err = c.client.Chat.Completions.New(reqCtx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}
	gens := make([]Generation, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		gens = append(gens, Generation{
			Text: choice.Message.Content,
			Info: map[string]any{"finish_reason": string(choice.FinishReason)},
		})
	}
	return gens, nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
