package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"task-solver/api/internal/config"
	"task-solver/api/internal/handle"
	"task-solver/api/internal/metrics"
	"task-solver/api/internal/solver"
	"task-solver/api/internal/solver/gemini"
	"task-solver/api/internal/solver/openrouter"
	"task-solver/api/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	if err := cfg.Require("OPENROUTER_API_KEY"); err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --- Usage journal (optional) ---
	var (
		usage store.Recorder = store.Nop{}
		stats handle.UsageStats
	)
	if dsn := store.ResolveDSN(cfg.DatabaseURL); dsn != "" {
		repo, err := store.OpenUsage(ctx, dsn)
		if err != nil {
			logger.Fatal("usage journal", zap.Error(err))
		}
		defer repo.Close()
		usage, stats = repo, repo
		go repo.RunRetention(ctx, 24*time.Hour, cfg.UsageRetention, logger)
		logger.Info("db connected", zap.String("dsn", store.SafeDSNSummary(dsn)))
	} else {
		logger.Info("usage journal disabled: DATABASE_URL is empty")
	}

	// --- Engines ---
	engines := &solver.Engines{
		OpenRouter: openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, openrouter.Options{
			BaseURL: cfg.OpenRouterURL,
			Referer: cfg.Referer,
			Title:   cfg.Title,
		}),
	}
	if cfg.GeminiAPIKey != "" {
		engines.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}

	limiter, err := handle.NewRateLimiter(cfg.RateLimit, 0)
	if err != nil {
		logger.Fatal("rate limiter", zap.Error(err))
	}

	m := metrics.New()
	h := handle.New(handle.Deps{
		Engines:   engines,
		Config:    cfg,
		Metrics:   m,
		Usage:     usage,
		Stats:     stats,
		Logger:    logger,
		RateLimit: limiter,
	})

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors.AllowAll().Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("task-solver listening",
		zap.String("addr", srv.Addr),
		zap.String("model", cfg.OpenRouterModel),
		zap.Bool("gemini", engines.Gemini != nil),
		zap.String("static", cfg.StaticDir),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server", zap.Error(err))
	}
	logger.Info("task-solver stopped")
}
