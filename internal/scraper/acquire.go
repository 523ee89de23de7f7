package scraper

import (
	"context"
	"log/slog"

	"github.com/Saul-Punybz/hnbrief/internal/hn"
)

// Source identifies where acquired text came from.
type Source int

const (
	SourceExternal Source = iota
	SourcePostPage
)

func (s Source) String() string {
	if s == SourcePostPage {
		return "post"
	}
	return "external"
}

// RawContent is the acquired text for one item. OK is false when every
// source failed.
type RawContent struct {
	Text   string
	Source Source
	OK     bool
}

// Acquirer picks the source for an item and applies the fallback policy.
type Acquirer struct {
	extractor      Extractor
	fallbackToPost bool
}

// NewAcquirer creates an Acquirer. When fallbackToPost is set, a failed
// external extraction is retried against the discussion page.
func NewAcquirer(extractor Extractor, fallbackToPost bool) *Acquirer {
	return &Acquirer{extractor: extractor, fallbackToPost: fallbackToPost}
}

// Acquire returns the normalized text for item.
func (a *Acquirer) Acquire(ctx context.Context, item hn.Item) RawContent {
	if item.HasExternalURL() {
		if text, ok := a.extract(ctx, item.URL); ok {
			return RawContent{Text: text, Source: SourceExternal, OK: true}
		}
		if !a.fallbackToPost {
			return RawContent{Source: SourceExternal}
		}
		slog.Info("acquire: falling back to post page", "object_id", item.ObjectID)
	}

	if text, ok := a.extract(ctx, item.PostURL); ok {
		return RawContent{Text: text, Source: SourcePostPage, OK: true}
	}
	return RawContent{Source: SourcePostPage}
}

func (a *Acquirer) extract(ctx context.Context, pageURL string) (string, bool) {
	if pageURL == "" {
		return "", false
	}
	text, err := a.extractor.Extract(ctx, pageURL)
	if err != nil {
		slog.Warn("acquire: extraction failed", "url", pageURL, "err", err)
		return "", false
	}
	text = NormalizeWhitespace(text)
	if text == "" {
		slog.Warn("acquire: empty text", "url", pageURL)
		return "", false
	}
	return text, true
}
