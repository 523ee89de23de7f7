// Package summarizer reduces arbitrarily long text to a short summary under
// the completion service's input budget. Text that fits in one request is
// summarized directly; longer text is split into token chunks whose extracted
// notes are reduced by a final request.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Saul-Punybz/hnbrief/internal/ai"
	"github.com/Saul-Punybz/hnbrief/internal/tokens"
)

var (
	// ErrEmptyContent is returned for text with no tokens.
	ErrEmptyContent = errors.New("summarizer: nothing to summarize")
	// ErrNoDigest is returned when every map-phase request failed.
	ErrNoDigest = errors.New("summarizer: every chunk failed")
)

// Placeholder replaces a structured response that could not be parsed.
const Placeholder = "(summary unavailable)"

// Config holds the token budgets and retry policy.
type Config struct {
	SingleShotTokens int
	ChunkTokens      int
	Retries          int
	MapConcurrency   int
	Structured       bool
	Size             ai.ModelSize
}

// DefaultConfig mirrors the budgets the pipeline was tuned with.
func DefaultConfig() Config {
	return Config{
		SingleShotTokens: 2800,
		ChunkTokens:      2800,
		Retries:          3,
		MapConcurrency:   1,
	}
}

// Result is a finished summary. Truncated means the map-reduce path was used.
type Result struct {
	Text      string
	Keywords  []string
	Truncated bool
}

// Summarizer drives the completion service over token-budgeted input.
type Summarizer struct {
	ai    ai.Completer
	tok   tokens.Counter
	cfg   Config
	newID func() string
}

// New creates a Summarizer. Zero budgets and retry counts take defaults.
func New(completer ai.Completer, tok tokens.Counter, cfg Config) *Summarizer {
	def := DefaultConfig()
	if cfg.SingleShotTokens <= 0 {
		cfg.SingleShotTokens = def.SingleShotTokens
	}
	if cfg.ChunkTokens <= 0 {
		cfg.ChunkTokens = def.ChunkTokens
	}
	if cfg.Retries <= 0 {
		cfg.Retries = def.Retries
	}
	if cfg.MapConcurrency <= 0 {
		cfg.MapConcurrency = def.MapConcurrency
	}
	return &Summarizer{
		ai:    completer,
		tok:   tok,
		cfg:   cfg,
		newID: func() string { return uuid.NewString() },
	}
}

// Summarize returns a bounded summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (*Result, error) {
	ids := s.tok.Encode(text)
	if len(ids) == 0 {
		return nil, ErrEmptyContent
	}

	conv := s.newID()
	log := slog.With("conversation", conv, "tokens", len(ids))

	if len(ids) <= s.cfg.SingleShotTokens {
		log.Debug("summarizer: single shot")
		out, err := s.complete(ctx, conv, s.finalPrompt(directPrompt(s.tok.Decode(ids))))
		if err != nil {
			return nil, fmt.Errorf("summarizer: single shot: %w", err)
		}
		return s.result(out), nil
	}

	chunks := tokens.Split(ids, s.cfg.ChunkTokens)
	log.Info("summarizer: map-reduce", "chunks", len(chunks))

	notes := s.mapChunks(ctx, conv, chunks)
	digest := strings.Join(nonEmpty(notes), "\n")
	if digest == "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoDigest
	}

	out, err := s.complete(ctx, conv, s.finalPrompt(reducePrompt(digest)))
	if err != nil {
		return nil, fmt.Errorf("summarizer: reduce: %w", err)
	}
	res := s.result(out)
	res.Truncated = true
	return res, nil
}

// mapChunks runs the extraction request for every chunk. notes[i] holds the
// output for chunks[i], or "" if that chunk failed.
func (s *Summarizer) mapChunks(ctx context.Context, conv string, chunks [][]int) []string {
	notes := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MapConcurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := s.complete(gctx, conv, s.mapPrompt(s.tok.Decode(chunk)))
			if err != nil {
				slog.Warn("summarizer: chunk dropped", "conversation", conv, "chunk", i, "err", err)
				return nil
			}
			notes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	return notes
}

// complete issues one request, retrying immediately up to the configured
// number of attempts.
func (s *Summarizer) complete(ctx context.Context, conv string, p prompt) (string, error) {
	req := ai.Request{
		ConversationID: conv,
		System:         p.system,
		User:           p.user,
		Size:           s.cfg.Size,
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := s.ai.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		slog.Debug("summarizer: completion failed", "conversation", conv, "attempt", attempt, "err", err)
	}
	return "", fmt.Errorf("after %d attempts: %w", s.cfg.Retries, lastErr)
}

func (s *Summarizer) finalPrompt(p prompt) prompt {
	if s.cfg.Structured {
		p.user += structuredSuffix
	}
	return p
}

func (s *Summarizer) mapPrompt(chunk string) prompt {
	return prompt{system: reporterSystem, user: mapInstruction(chunk)}
}

func (s *Summarizer) result(out string) *Result {
	if !s.cfg.Structured {
		return &Result{Text: strings.TrimSpace(out)}
	}
	return parseStructured(out)
}

// structured is the JSON object requested from the final call.
type structured struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

// parseStructured reads the first top-level JSON block of out. Malformed or
// missing blocks yield the placeholder text.
func parseStructured(out string) *Result {
	block, ok := ai.ExtractJSONBlock(out)
	if !ok {
		slog.Warn("summarizer: no structured block in response", "len", len(out))
		return &Result{Text: Placeholder}
	}

	var parsed structured
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		slog.Warn("summarizer: parse structured response", "err", err)
		return &Result{Text: Placeholder}
	}

	text := strings.TrimSpace(parsed.Summary)
	if text == "" {
		text = Placeholder
	}
	return &Result{Text: text, Keywords: nonEmpty(parsed.Keywords)}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
