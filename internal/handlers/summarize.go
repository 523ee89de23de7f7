package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Saul-Punybz/hnbrief/internal/scraper"
	"github.com/Saul-Punybz/hnbrief/internal/summarizer"
)

type Summarizer interface {
	Summarize(ctx context.Context, text string) (*summarizer.Result, error)
}

// SummarizeHandler summarizes one page or text on demand, using the same
// extractor and summarizer as the worker.
type SummarizeHandler struct {
	Extractor         scraper.Extractor
	Summarizer        Summarizer
	SmallContentWords int
}

type summarizeRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Summarize handles POST /api/summarize with {"url": "..."} or {"text": "..."}.
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "url or text is required")
			return
		}
		u, err := url.Parse(req.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			writeError(w, http.StatusBadRequest, "url must be absolute http(s)")
			return
		}
		extracted, err := h.Extractor.Extract(r.Context(), req.URL)
		if err != nil {
			slog.Warn("summarize: extract failed", "url", req.URL, "err", err)
			writeError(w, http.StatusBadGateway, "could not fetch page text")
			return
		}
		text = extracted
	}

	words := scraper.WordCount(text)
	if words < h.SmallContentWords {
		writeJSON(w, http.StatusOK, map[string]any{
			"summary":    text,
			"summarized": false,
			"words":      words,
		})
		return
	}

	res, err := h.Summarizer.Summarize(r.Context(), text)
	if err != nil {
		slog.Error("summarize", "words", words, "err", err)
		writeError(w, http.StatusBadGateway, "summarization failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":    res.Text,
		"keywords":   res.Keywords,
		"truncated":  res.Truncated,
		"summarized": true,
		"words":      words,
	})
}
