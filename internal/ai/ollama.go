package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	generateTimeout = 120 * time.Second

	defaultOllamaModel = "llama3"
)

// OllamaClient is an HTTP client for the Ollama API.
type OllamaClient struct {
	baseURL    string
	models     Models
	httpClient *http.Client
}

// NewOllamaClient creates a new OllamaClient configured with the given base URL
// and model names.
func NewOllamaClient(baseURL string, models Models) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if models.Small == "" {
		models.Small = defaultOllamaModel
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  models,
		httpClient: &http.Client{
			Timeout: generateTimeout,
		},
	}
}

// generateRequest is the JSON body sent to POST /api/generate.
type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is a single JSON object in the Ollama streaming response.
// With stream=true each line carries a partial "response" field and the last
// one has done=true.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete performs a POST to /api/generate and concatenates the streamed
// response into a single string.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	model := c.models.For(req.Size)
	body, err := json.Marshal(generateRequest{
		Model:  model,
		System: req.System,
		Prompt: req.User,
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama generate: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("ollama generate", "model", model, "conversation", req.ConversationID, "prompt_len", len(req.User))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama generate: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode, string(respBody))
	}

	var sb strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for decoder.More() {
		var chunk generateResponse
		if err := decoder.Decode(&chunk); err != nil {
			// Keep what we have if the stream was cut short.
			if sb.Len() > 0 {
				break
			}
			return "", fmt.Errorf("ollama generate: decode chunk: %w", err)
		}
		sb.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}

	result := strings.TrimSpace(sb.String())
	if result == "" {
		return "", fmt.Errorf("ollama generate: %w", ErrEmptyResponse)
	}
	return result, nil
}
