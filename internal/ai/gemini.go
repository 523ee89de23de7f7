package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient completes through Google GenAI Gemini.
type GeminiClient struct {
	client *genai.Client
	models Models
}

// NewGeminiClient creates a Gemini client using the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey string, models Models) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if models.Small == "" {
		models.Small = "gemini-2.5-flash"
	}
	return &GeminiClient{client: client, models: models}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	model := c.models.For(req.Size)
	slog.Debug("gemini generate", "model", model, "conversation", req.ConversationID, "prompt_len", len(req.User))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		},
	}
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.User), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: no candidates: %w", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return content, nil
}
