package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient completes through the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	models Models
}

// NewOpenAIClient creates an OpenAI client. baseURL may point at any
// OpenAI-compatible endpoint; empty uses the public API.
func NewOpenAIClient(apiKey, baseURL string, models Models) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if models.Small == "" {
		models.Small = string(openai.ChatModelGPT4oMini)
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client, models: models}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	model := c.models.For(req.Size)
	slog.Debug("openai chat", "model", model, "conversation", req.ConversationID, "prompt_len", len(req.User))

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.ConversationID != "" {
		params.User = openai.String(req.ConversationID)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices: %w", ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return content, nil
}
