// Command worker polls Hacker News on a cron schedule and delivers a
// summary of every new story matching the keyword.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Saul-Punybz/hnbrief/internal/app"
	"github.com/Saul-Punybz/hnbrief/internal/config"
)

// tickTimeout bounds a single tick so a hung page cannot hold the schedule.
const tickTimeout = 50 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("worker: load config", "err", err)
		os.Exit(1)
	}

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	if err := cfg.Validate(); err != nil {
		slog.Error("worker: invalid config", "err", err)
		os.Exit(1)
	}

	slog.Info("worker: starting hnbrief worker", "keyword", cfg.Keyword, "schedule", cfg.Schedule)

	// Create a root context that is cancelled on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("worker: build failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	// Track in-flight ticks for graceful shutdown.
	var wg sync.WaitGroup

	runTick := func(trigger string) {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, tickTimeout)
		defer jobCancel()

		slog.Info("worker: tick triggered", "trigger", trigger)
		a.Pipeline.RunTick(jobCtx, cfg.Keyword)
	}

	// Overlapping ticks are skipped rather than queued.
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err = c.AddFunc(cfg.Schedule, func() { runTick("cron") })
	if err != nil {
		slog.Error("worker: add tick cron", "schedule", cfg.Schedule, "err", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("worker: cron scheduler started", "jobs", len(c.Entries()), "next", c.Entries()[0].Next)

	if cfg.RunOnStart {
		go runTick("startup")
	}

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	slog.Info("worker: received shutdown signal", "signal", sig.String())

	// Stop accepting new ticks, then cancel the in-flight one.
	cronCtx := c.Stop()
	cancel()

	select {
	case <-cronCtx.Done():
		slog.Info("worker: cron scheduler stopped")
	case <-time.After(30 * time.Second):
		slog.Warn("worker: cron scheduler stop timed out")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("worker: all in-flight ticks complete")
	case <-time.After(60 * time.Second):
		slog.Warn("worker: timed out waiting for in-flight ticks")
	}

	slog.Info("worker: shutdown complete")
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
