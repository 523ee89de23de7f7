// Package pipeline drives one polling tick: poll recent stories, acquire
// their text, summarize, and deliver one message per story.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Saul-Punybz/hnbrief/internal/hn"
	"github.com/Saul-Punybz/hnbrief/internal/models"
	"github.com/Saul-Punybz/hnbrief/internal/notify"
	"github.com/Saul-Punybz/hnbrief/internal/scraper"
	"github.com/Saul-Punybz/hnbrief/internal/summarizer"
)

// DefaultSmallContentWords is the word count under which raw text is
// delivered as-is.
const DefaultSmallContentWords = 150

type Poller interface {
	Poll(ctx context.Context, keyword string, window time.Duration) hn.SearchResult
}

type Acquirer interface {
	Acquire(ctx context.Context, item hn.Item) scraper.RawContent
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (*summarizer.Result, error)
}

// Archive records delivered posts. It is write-only from the pipeline.
type Archive interface {
	Record(ctx context.Context, post *models.Post) error
}

// Evidence keeps a copy of the acquired text and the summary.
type Evidence interface {
	StoreEvidence(ctx context.Context, objectID string, raw, summary []byte) error
}

// Deps groups the collaborators of a Pipeline. Archive and Evidence are
// optional.
type Deps struct {
	Poller     Poller
	Acquirer   Acquirer
	Summarizer Summarizer
	Notifier   notify.Notifier
	Archive    Archive
	Evidence   Evidence
}

// Config holds the per-deployment knobs of a tick.
type Config struct {
	Window            time.Duration
	SmallContentWords int
}

// Stats counts what happened to the items of one tick.
type Stats struct {
	Polled     int
	Acquired   int
	Summarized int
	Delivered  int
	Skipped    int
	Failed     int
}

// Pipeline runs ticks. It holds no state between ticks.
type Pipeline struct {
	deps Deps
	cfg  Config
}

func New(deps Deps, cfg Config) *Pipeline {
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	if cfg.SmallContentWords <= 0 {
		cfg.SmallContentWords = DefaultSmallContentWords
	}
	return &Pipeline{deps: deps, cfg: cfg}
}

// RunTick processes every item of one poll sequentially. Per-item failures
// are logged and skipped; they never abort the tick.
func (p *Pipeline) RunTick(ctx context.Context, keyword string) Stats {
	start := time.Now()
	slog.Info("pipeline: tick started", "keyword", keyword, "window", p.cfg.Window)

	result := p.deps.Poller.Poll(ctx, keyword, p.cfg.Window)
	stats := Stats{Polled: len(result.Items)}

	for _, item := range result.Items {
		if ctx.Err() != nil {
			slog.Warn("pipeline: tick cancelled", "err", ctx.Err())
			break
		}
		p.processItem(ctx, item, &stats)
	}

	slog.Info("pipeline: tick complete",
		"keyword", keyword,
		"polled", stats.Polled,
		"acquired", stats.Acquired,
		"summarized", stats.Summarized,
		"delivered", stats.Delivered,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return stats
}

func (p *Pipeline) processItem(ctx context.Context, item hn.Item, stats *Stats) {
	log := slog.With("object_id", item.ObjectID, "title", truncate(item.Title, 80))

	raw := p.deps.Acquirer.Acquire(ctx, item)
	if !raw.OK || raw.Text == "" {
		log.Info("pipeline: no content, skipping")
		stats.Skipped++
		return
	}
	stats.Acquired++

	summary := &summarizer.Result{Text: raw.Text}
	if words := scraper.WordCount(raw.Text); words >= p.cfg.SmallContentWords {
		res, err := p.deps.Summarizer.Summarize(ctx, raw.Text)
		if err != nil {
			log.Warn("pipeline: summarize failed, skipping", "words", words, "err", err)
			stats.Failed++
			return
		}
		summary = res
		stats.Summarized++
	} else {
		log.Debug("pipeline: short content used as summary", "words", words)
	}

	msg := FormatMessage(item, summary)
	if err := p.deps.Notifier.Send(ctx, msg); err != nil {
		log.Error("pipeline: delivery failed", "dest", p.deps.Notifier.Destination(), "err", err)
		stats.Failed++
		return
	}
	stats.Delivered++
	log.Info("pipeline: delivered", "dest", p.deps.Notifier.Destination(), "source", raw.Source.String(), "truncated", summary.Truncated)

	p.record(ctx, item, raw, summary)
}

// record hands a delivered item to the optional sinks.
func (p *Pipeline) record(ctx context.Context, item hn.Item, raw scraper.RawContent, summary *summarizer.Result) {
	if p.deps.Archive != nil {
		post := &models.Post{
			ObjectID:    item.ObjectID,
			Title:       item.Title,
			URL:         item.URL,
			PostURL:     item.PostURL,
			Author:      item.Author,
			Summary:     summary.Text,
			Keywords:    summary.Keywords,
			Source:      raw.Source.String(),
			Truncated:   summary.Truncated,
			Destination: p.deps.Notifier.Destination(),
			PostedAt:    item.CreatedAt,
		}
		if err := p.deps.Archive.Record(ctx, post); err != nil {
			slog.Error("pipeline: archive post", "object_id", item.ObjectID, "err", err)
		}
	}

	if p.deps.Evidence != nil {
		if err := p.deps.Evidence.StoreEvidence(ctx, item.ObjectID, []byte(raw.Text), []byte(summary.Text)); err != nil {
			slog.Error("pipeline: store evidence", "object_id", item.ObjectID, "err", err)
		}
	}
}

// FormatMessage builds the outbound message for an item.
func FormatMessage(item hn.Item, summary *summarizer.Result) notify.Message {
	return notify.Message{
		Title:     item.Title,
		PostURL:   item.PostURL,
		SourceURL: item.URL,
		Author:    item.Author,
		Summary:   summary.Text,
		Keywords:  summary.Keywords,
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
