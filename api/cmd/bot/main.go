package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"task-solver/api/internal/config"
	"task-solver/api/internal/format"
	"task-solver/api/internal/metrics"
	"task-solver/api/internal/solver"
	"task-solver/api/internal/solver/gemini"
	"task-solver/api/internal/solver/openrouter"
	"task-solver/api/internal/store"
	"task-solver/api/internal/telegram"
)

func main() {
	cfg := config.Load()

	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	if err := cfg.Require("TELEGRAM_BOT_TOKEN"); err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if cfg.OpenRouterAPIKey == "" && cfg.GeminiAPIKey == "" {
		logger.Fatal("config", zap.String("error", "set OPENROUTER_API_KEY or GEMINI_API_KEY"))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --- Usage journal (optional) ---
	var (
		usage store.Recorder = store.Nop{}
		repo  *store.UsageRepo
	)
	if dsn := store.ResolveDSN(cfg.DatabaseURL); dsn != "" {
		repo, err = store.OpenUsage(ctx, dsn)
		if err != nil {
			logger.Fatal("usage journal", zap.Error(err))
		}
		defer repo.Close()
		usage = repo
		go repo.RunRetention(ctx, 24*time.Hour, cfg.UsageRetention, logger)
		logger.Info("db connected", zap.String("dsn", store.SafeDSNSummary(dsn)))
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false

	// Engines
	engines := &solver.Engines{}
	if cfg.OpenRouterAPIKey != "" {
		engines.OpenRouter = openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, openrouter.Options{
			BaseURL: cfg.OpenRouterURL,
			Referer: cfg.Referer,
			Title:   cfg.Title,
		})
	}
	if cfg.GeminiAPIKey != "" {
		engines.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	// дефолт — OpenRouter, если он настроен
	def := engines.OpenRouter
	if def == nil {
		def = engines.Gemini
	}

	strategy, err := format.ParseStrategy(cfg.FormatStrategy)
	if err != nil {
		logger.Warn("bad FORMAT_STRATEGY, using paragraphs", zap.Error(err))
		strategy = format.Paragraphs
	}

	m := metrics.New()
	r := &telegram.Router{
		Bot:         bot,
		Engines:     engines,
		EngManager:  solver.NewManager(def),
		Strategy:    strategy,
		Timeout:     cfg.RequestTimeout,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Metrics:     m,
		Usage:       usage,
		Log:         logger,
	}

	// --- HTTP mux (DefaultServeMux) ---
	// ListenForWebhook регистрирует обработчик на DefaultServeMux, поэтому всё вешаем туда же.
	http.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if repo != nil {
			pingCtx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := repo.DB.PingContext(pingCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	http.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: "0.0.0.0:" + cfg.Port, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// --- Choose mode: Webhook vs Polling ---
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		runWebhook(ctx, bot, r, webhookURL, logger)
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("delete webhook", zap.Error(err))
		}
		runPolling(ctx, bot, r.HandleUpdate, logger)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	r.Wait()
	logger.Info("bot stopped")
}

// ---------------- Modes -----------------

func runWebhook(ctx context.Context, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string, logger *zap.Logger) {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		logger.Fatal("webhook", zap.Error(err))
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		logger.Fatal("webhook", zap.Error(err))
	}

	// tgbotapi.ListenForWebhook регистрирует обработчик на DefaultServeMux
	updates := bot.ListenForWebhook(path)
	logger.Info("webhook mode", zap.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return
		case upd := <-updates:
			r.HandleUpdate(upd)
		}
	}
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

// runPolling — устойчивый long polling с backoff, без log.Fatal/os.Exit.
func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update), logger *zap.Logger) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second
	logger.Info("polling mode")

	for {
		select {
		case <-ctx.Done():
			logger.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			logger.Warn("polling error", zap.Error(err), zap.Duration("retry_in", d))
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	// 16-символный hex
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
