// Package app builds the object graph shared by the worker and the API.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Saul-Punybz/hnbrief/internal/ai"
	"github.com/Saul-Punybz/hnbrief/internal/config"
	"github.com/Saul-Punybz/hnbrief/internal/db"
	"github.com/Saul-Punybz/hnbrief/internal/hn"
	"github.com/Saul-Punybz/hnbrief/internal/models"
	"github.com/Saul-Punybz/hnbrief/internal/notify"
	"github.com/Saul-Punybz/hnbrief/internal/pipeline"
	"github.com/Saul-Punybz/hnbrief/internal/scraper"
	"github.com/Saul-Punybz/hnbrief/internal/storage"
	"github.com/Saul-Punybz/hnbrief/internal/summarizer"
	"github.com/Saul-Punybz/hnbrief/internal/tokens"
)

// App holds the long-lived components. Pool and Posts are nil when the
// archive database is not configured.
type App struct {
	Config     config.Config
	Pipeline   *pipeline.Pipeline
	Extractor  scraper.Extractor
	Summarizer *summarizer.Summarizer
	Notifier   notify.Notifier
	Storage    *storage.Client
	Pool       *pgxpool.Pool
	Posts      *models.PostStore
}

// Build wires every component from cfg.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	tok, err := tokens.NewTikToken(tokens.DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("app: tokenizer: %w", err)
	}

	completer, err := ai.New(ctx, ai.ProviderConfig{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey(),
		BaseURL:  cfg.AI.BaseURL(),
		Models:   ai.Models{Small: cfg.AI.SmallModel, Large: cfg.AI.LargeModel},
	})
	if err != nil {
		return nil, fmt.Errorf("app: completion provider: %w", err)
	}

	extractor := NewExtractor(cfg.Acquire)

	sum := summarizer.New(completer, tok, summarizer.Config{
		SingleShotTokens: cfg.Summary.SingleShotTokens,
		ChunkTokens:      cfg.Summary.ChunkTokens,
		Retries:          cfg.Summary.Retries,
		MapConcurrency:   cfg.Summary.MapConcurrency,
		Structured:       cfg.Summary.Structured,
		Size:             ai.ParseModelSize(cfg.Summary.ModelSize),
	})

	notifier, err := notify.New(notify.Config{
		Kind:           cfg.Notify.Kind,
		SlackToken:     cfg.Notify.SlackToken,
		SlackWorkspace: cfg.Notify.SlackWorkspace,
		SlackChannel:   cfg.Notify.SlackChannel,
		DiscordToken:   cfg.Notify.DiscordToken,
		DiscordChannel: cfg.Notify.DiscordChannel,
		TelegramToken:  cfg.Notify.TelegramToken,
		TelegramChatID: cfg.Notify.TelegramChatID,
	})
	if err != nil {
		return nil, fmt.Errorf("app: notifier: %w", err)
	}

	store, err := storage.NewClient(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("app: storage: %w", err)
	}

	a := &App{
		Config:     cfg,
		Extractor:  extractor,
		Summarizer: sum,
		Notifier:   notifier,
		Storage:    store,
	}

	deps := pipeline.Deps{
		Poller:     NewPoller(cfg.HN),
		Acquirer:   scraper.NewAcquirer(extractor, cfg.Acquire.FallbackToPost),
		Summarizer: sum,
		Notifier:   notifier,
	}

	if cfg.DB.Configured() {
		pool, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		a.Pool = pool
		a.Posts = models.NewPostStore(pool)
		deps.Archive = a.Posts
	} else {
		slog.Warn("DB_HOST not set, post archive disabled")
	}

	if store.Configured() {
		deps.Evidence = store
	}

	a.Pipeline = pipeline.New(deps, pipeline.Config{
		Window:            cfg.Window,
		SmallContentWords: cfg.Summary.SmallContentWords,
	})

	slog.Info("app built",
		"keyword", cfg.Keyword,
		"source", cfg.HN.Source,
		"provider", cfg.AI.Provider,
		"extractor", cfg.Acquire.Extractor,
		"notifier", notifier.Destination(),
		"archive", cfg.DB.Configured(),
		"evidence", store.Configured(),
	)
	return a, nil
}

// NewPoller returns the story source selected by POLL_SOURCE.
func NewPoller(cfg config.HNConfig) pipeline.Poller {
	if cfg.Source == "rss" {
		return hn.NewFeedPoller(cfg.FeedBaseURL, cfg.PostBaseURL)
	}
	return hn.NewPoller(cfg.SearchBaseURL, cfg.PostBaseURL)
}

// NewExtractor returns the extractor selected by EXTRACTOR.
func NewExtractor(cfg config.AcquireConfig) scraper.Extractor {
	if cfg.Extractor == "service" {
		return scraper.NewServiceExtractor(cfg.ServiceURL)
	}
	return scraper.NewCollyExtractor()
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
