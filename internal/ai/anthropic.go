package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

// AnthropicClient completes through the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	models Models
}

func NewAnthropicClient(apiKey, baseURL string, models Models) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if models.Small == "" {
		models.Small = "claude-3-5-haiku-latest"
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicClient{client: &client, models: models}
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	model := c.models.For(req.Size)
	slog.Debug("anthropic messages", "model", model, "conversation", req.ConversationID, "prompt_len", len(req.User))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.ConversationID != "" {
		params.Metadata = anthropic.MetadataParam{UserID: anthropic.String(req.ConversationID)}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		sb.WriteString(block.Text)
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	return content, nil
}
