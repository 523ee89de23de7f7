// Command api serves the delivered-post archive and on-demand summaries.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Saul-Punybz/hnbrief/internal/app"
	"github.com/Saul-Punybz/hnbrief/internal/config"
	"github.com/Saul-Punybz/hnbrief/internal/handlers"
	"github.com/Saul-Punybz/hnbrief/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("build failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	postHandler := &handlers.PostHandler{}
	if a.Posts != nil {
		postHandler.Posts = a.Posts
	}
	if a.Storage.Configured() {
		postHandler.Evidence = a.Storage
	}
	summarizeHandler := &handlers.SummarizeHandler{
		Extractor:         a.Extractor,
		Summarizer:        a.Summarizer,
		SmallContentWords: cfg.Summary.SmallContentWords,
	}
	tickHandler := &handlers.TickHandler{
		Runner:  a.Pipeline,
		Keyword: cfg.Keyword,
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token"},
		MaxAge:         300,
	}))

	r.Get("/api/health", handlers.Health)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(15 * time.Second))
		r.Get("/api/posts", postHandler.List)
		r.Get("/api/posts/{objectID}/evidence", postHandler.GetEvidence)
	})

	// Admin routes. Summaries can take minutes on a local model.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminToken(cfg.Server.AdminTokenHash))
		r.Post("/api/tick", tickHandler.Trigger)
		r.With(chimw.Timeout(5*time.Minute)).Post("/api/summarize", summarizeHandler.Summarize)
	})

	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}

	slog.Info("server stopped")
}
