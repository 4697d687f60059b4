package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Telegram update delivery modes.
const (
	TelegramModePoll    = "poll"
	TelegramModeWebhook = "webhook"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	Timezone string

	// Database
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Telegram
	BookingBotToken   string
	AdminBotToken     string
	TelegramAPIURL    string
	TelegramMode      string
	TelegramTimeout   time.Duration
	TelegramRateLimit int
	WebhookAddr       string
	WebhookURL        string
	WebhookSecret     string

	// Booking
	PaymentCard       string
	AdminContact      string
	NotifyConcurrency int
	CommitTimeout     time.Duration

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TIMEZONE", "Europe/Kyiv"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", defaultSQLitePath()),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		BookingBotToken:   getEnv("BOOKING_BOT_TOKEN", ""),
		AdminBotToken:     getEnv("ADMIN_BOT_TOKEN", ""),
		TelegramAPIURL:    getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramMode:      strings.ToLower(getEnv("TELEGRAM_MODE", TelegramModePoll)),
		TelegramTimeout:   getDurationEnv("TELEGRAM_TIMEOUT", 10*time.Second),
		TelegramRateLimit: getIntEnv("TELEGRAM_RATE_LIMIT", 25),
		WebhookAddr:       getEnv("WEBHOOK_ADDR", "0.0.0.0:8080"),
		WebhookURL:        strings.TrimRight(getEnv("WEBHOOK_URL", ""), "/"),
		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),

		PaymentCard:       getEnv("PAYMENT_CARD", ""),
		AdminContact:      getEnv("ADMIN_CONTACT", ""),
		NotifyConcurrency: getIntEnv("NOTIFY_CONCURRENCY", 4),
		CommitTimeout:     getDurationEnv("COMMIT_TIMEOUT", 5*time.Second),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
	}
	cfg.DatabaseDriver = detectDriver(cfg.DatabaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.TelegramMode != TelegramModePoll && c.TelegramMode != TelegramModeWebhook {
		return fmt.Errorf("invalid TELEGRAM_MODE %q: expected %q or %q", c.TelegramMode, TelegramModePoll, TelegramModeWebhook)
	}
	if c.NotifyConcurrency < 1 {
		return fmt.Errorf("NOTIFY_CONCURRENCY must be positive, got %d", c.NotifyConcurrency)
	}
	if c.TelegramRateLimit < 1 {
		return fmt.Errorf("TELEGRAM_RATE_LIMIT must be positive, got %d", c.TelegramRateLimit)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the wall-clock location bookings are made in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsLocalMode reports whether the zero-config SQLite store is in use.
func (c *Config) IsLocalMode() bool {
	return c.DatabaseDriver == "sqlite"
}

func detectDriver(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".reserva", "data.db")
	}
	return filepath.Join(home, ".reserva", "data.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
