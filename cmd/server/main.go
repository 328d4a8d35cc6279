package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/andrewbaggio1/sthealth-core/internal/analytics"
	"github.com/andrewbaggio1/sthealth-core/internal/api"
	"github.com/andrewbaggio1/sthealth-core/internal/config"
	"github.com/andrewbaggio1/sthealth-core/internal/engagement"
	"github.com/andrewbaggio1/sthealth-core/internal/generation"
	"github.com/andrewbaggio1/sthealth-core/internal/nudge"
	"github.com/andrewbaggio1/sthealth-core/internal/profile"
	"github.com/andrewbaggio1/sthealth-core/internal/store"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Stores
	events := store.NewEventStore(db)
	nudges := store.NewNudgeStore(db)
	states := store.NewStateStore(db)

	// Engagement intake
	recorder := engagement.NewRecorder(events, logger)

	// Profile builder
	builder, err := profile.NewBuilder(events, logger)
	if err != nil {
		logger.Error("failed to init profile builder", "error", err)
		os.Exit(1)
	}

	// Content generation
	var provider generation.Generator
	switch cfg.Provider {
	case config.ProviderGemini:
		provider, err = generation.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to init gemini client", "error", err)
			os.Exit(1)
		}
	case config.ProviderOllama:
		provider = generation.NewOllama(cfg.OllamaBaseURL, cfg.OllamaModel)
	}
	generator := generation.NewService(provider, cfg.GenerateTimeout(), logger)

	// Analytics
	var sink analytics.Sink = analytics.NopSink{}
	if cfg.AnalyticsURL != "" {
		sink = analytics.NewHTTPSink(cfg.AnalyticsURL, cfg.AnalyticsToken, logger)
	}

	// Scheduler
	sched := nudge.NewScheduler(builder, generator, nudges, states, sink, logger, nudge.Options{
		MinInterval:    cfg.MinNudgeInterval(),
		DisplayTimeout: cfg.DisplayTimeout(),
		SettleDelay:    cfg.SettleDelay(),
	})
	if interval := cfg.EvaluateInterval(); interval > 0 {
		sched.Start(interval)
	}

	// Router
	router := api.NewRouter(db, recorder, events, nudges, builder, sched, sink, cfg.APIKey, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("sthealth server starting", "addr", addr, "provider", cfg.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Stop background work after the listener drains so in-flight requests
	// still see a live scheduler and recorder.
	sched.Stop()
	recorder.Close()
	sink.Close()

	logger.Info("server stopped")
}
