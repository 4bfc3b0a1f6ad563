// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// State store backends.
const (
	StateStorePostgres = "postgres"
	StateStoreRedis    = "redis"
	StateStoreMemory   = "memory"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultTimezone            = "Asia/Singapore"
	DefaultCheckInterval       = 15 * time.Minute
	DefaultCooldown            = time.Hour
	DefaultDeliveryTimeout     = 10 * time.Second
	DefaultLogCap              = 50
	DefaultExchangeRateTimeout = 5 * time.Second
	DefaultExchangeRateTTL     = 12 * time.Hour
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	TelegramChatID   int64
	DatabaseURL      string
	RedisURL         string
	StateStore       string
	LogLevel         string
	LogFormat        string
	Timezone         string
	Location         *time.Location
	BaseCurrency     string

	CheckInterval   time.Duration
	Cooldown        time.Duration
	DeliveryTimeout time.Duration
	LogCap          int

	ExchangeRateBaseURL  string
	ExchangeRateTimeout  time.Duration
	ExchangeRateCacheTTL time.Duration

	MetricsAddr string
}

// Load reads configuration from environment variables, after loading a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string

	cfg := &Config{
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		StateStore:          strings.ToLower(envOr("STATE_STORE", StateStorePostgres)),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		LogFormat:           envOr("LOG_FORMAT", "console"),
		Timezone:            envOr("TIMEZONE", DefaultTimezone),
		BaseCurrency:        strings.ToUpper(envOr("BASE_CURRENCY", models.DefaultCurrency)),
		ExchangeRateBaseURL: os.Getenv("EXCHANGE_RATE_BASE_URL"),
		MetricsAddr:         os.Getenv("METRICS_ADDR"),
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			errs = append(errs, "TELEGRAM_CHAT_ID must be an integer")
		}
		cfg.TelegramChatID = id
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("TIMEZONE %q is not a valid IANA zone", cfg.Timezone))
	}
	cfg.Location = loc

	cfg.CheckInterval = durationEnv("CHECK_INTERVAL", DefaultCheckInterval, &errs)
	cfg.Cooldown = durationEnv("COOLDOWN", DefaultCooldown, &errs)
	cfg.DeliveryTimeout = durationEnv("DELIVERY_TIMEOUT", DefaultDeliveryTimeout, &errs)
	cfg.ExchangeRateTimeout = durationEnv("EXCHANGE_RATE_TIMEOUT", DefaultExchangeRateTimeout, &errs)
	cfg.ExchangeRateCacheTTL = durationEnv("EXCHANGE_RATE_CACHE_TTL", DefaultExchangeRateTTL, &errs)

	cfg.LogCap = DefaultLogCap
	if raw := os.Getenv("LOG_CAP"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errs = append(errs, "LOG_CAP must be a positive integer")
		} else {
			cfg.LogCap = n
		}
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// validate checks cross-field requirements.
func (c *Config) validate() []string {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramChatID == 0 {
		errs = append(errs, "TELEGRAM_CHAT_ID is required")
	}
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	switch c.StateStore {
	case StateStorePostgres, StateStoreMemory:
	case StateStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, "REDIS_URL is required when STATE_STORE=redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("STATE_STORE must be one of postgres, redis, memory (got %q)", c.StateStore))
	}

	if _, ok := models.SupportedCurrencies[c.BaseCurrency]; !ok {
		errs = append(errs, fmt.Sprintf("BASE_CURRENCY %q is not supported", c.BaseCurrency))
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be console or json")
	}

	return errs
}

// IsAuthorizedChat reports whether updates from chatID may drive the bot.
func (c *Config) IsAuthorizedChat(chatID int64) bool {
	return chatID != 0 && chatID == c.TelegramChatID
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration, errs *[]string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s must be a positive duration such as 15m", key))
		return fallback
	}
	return d
}
