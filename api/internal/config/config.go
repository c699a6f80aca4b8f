package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	OpenRouterAPIKey string
	OpenRouterURL    string
	OpenRouterModel  string
	MaxTokens        int
	Temperature      float32
	Referer          string
	Title            string

	GeminiAPIKey string
	GeminiModel  string

	StaticDir      string
	FormatStrategy string
	RequestTimeout time.Duration
	RateLimit      int // обращений к модели в минуту с одного IP, 0 — без лимита

	DatabaseURL    string
	UsageRetention time.Duration

	TelegramBotToken string
	WebhookURL       string
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnv(k, "")); err == nil {
		return v
	}
	return def
}

func getEnvFloat(k string, def float32) float32 {
	if v, err := strconv.ParseFloat(getEnv(k, ""), 32); err == nil {
		return float32(v)
	}
	return def
}

// Load читает .env (если есть) и переменные окружения. Уже выставленные
// переменные окружения имеют приоритет над .env.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterURL:    getEnv("OPENROUTER_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "openai/gpt-4o"),
		MaxTokens:        getEnvInt("SOLVE_MAX_TOKENS", 2000),
		Temperature:      getEnvFloat("SOLVE_TEMPERATURE", 0.3),
		Referer:          getEnv("APP_REFERER", "http://localhost:3000"),
		Title:            getEnv("APP_TITLE", "School Task Solver"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		StaticDir:      getEnv("STATIC_DIR", "web"),
		FormatStrategy: getEnv("FORMAT_STRATEGY", "paragraphs"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 180)) * time.Second,
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MIN", 20),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UsageRetention: time.Duration(getEnvInt("USAGE_RETENTION_DAYS", 90)) * 24 * time.Hour,

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
}

// Require проверяет, что перечисленные поля заполнены; имена — как у
// переменных окружения.
func (c *Config) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(c.lookup(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) lookup(k string) string {
	switch k {
	case "OPENROUTER_API_KEY":
		return c.OpenRouterAPIKey
	case "GEMINI_API_KEY":
		return c.GeminiAPIKey
	case "TELEGRAM_BOT_TOKEN":
		return c.TelegramBotToken
	case "DATABASE_URL":
		return c.DatabaseURL
	}
	return os.Getenv(k)
}
