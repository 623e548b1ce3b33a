package llm

import (
	"context"
	"errors"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrEmptyCompletion is returned when the API answers without any choice
var ErrEmptyCompletion = errors.New("completion returned no content")

// Completer produces a chat completion for a system and a user message
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// Client is a Completer backed by the OpenAI chat completions API
type Client struct {
	cli   oa.Client
	model string
}

// NewClient creates a chat completion client for the given model
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		cli:   oa.NewClient(opts...),
		model: model,
	}
}

// Model returns the model used for completions
func (c *Client) Model() string {
	return c.model
}

// Complete sends one system+user exchange and returns the trimmed answer
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	messages := make([]oa.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, oa.SystemMessage(system))
	}
	messages = append(messages, oa.UserMessage(user))

	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model:       oa.ChatModel(c.model),
		Messages:    messages,
		Temperature: oa.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
