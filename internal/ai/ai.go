// Package ai provides clients for the text-completion services used by the
// summarization pipeline.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("ai: empty response")

// ModelSize selects between a provider's fast and its stronger model.
type ModelSize int

const (
	ModelSmall ModelSize = iota
	ModelLarge
)

func (s ModelSize) String() string {
	if s == ModelLarge {
		return "large"
	}
	return "small"
}

// ParseModelSize maps "small"/"large" to a ModelSize. Anything else is small.
func ParseModelSize(s string) ModelSize {
	if strings.EqualFold(strings.TrimSpace(s), "large") {
		return ModelLarge
	}
	return ModelSmall
}

// Request is a single completion call. ConversationID is stable across all
// calls belonging to one logical task so providers and logs can correlate
// them.
type Request struct {
	ConversationID string
	System         string
	User           string
	Size           ModelSize
}

// Completer is implemented by every completion provider.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Models holds the model names a provider uses for each ModelSize.
type Models struct {
	Small string
	Large string
}

// For returns the model name for size, falling back to the small model.
func (m Models) For(size ModelSize) string {
	if size == ModelLarge && m.Large != "" {
		return m.Large
	}
	return m.Small
}

// ProviderConfig is the provider-agnostic configuration used by New.
type ProviderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Models   Models
}

// New builds the Completer named by cfg.Provider.
func New(ctx context.Context, cfg ProviderConfig) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return NewOllamaClient(cfg.BaseURL, cfg.Models), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Models), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Models), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Models)
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", cfg.Provider)
	}
}
