package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxServiceBody = 2 << 20

// ServiceExtractor delegates extraction to a remote text-extraction service
// that accepts POST {"url": "..."} and answers with plain text.
type ServiceExtractor struct {
	endpoint   string
	httpClient *http.Client
}

func NewServiceExtractor(endpoint string) *ServiceExtractor {
	return &ServiceExtractor{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *ServiceExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return "", fmt.Errorf("extract service: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("extract service: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract service: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extract service: status %d for %s", resp.StatusCode, pageURL)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxServiceBody))
	if err != nil {
		return "", fmt.Errorf("extract service: read body: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoContent, pageURL)
	}
	return text, nil
}
