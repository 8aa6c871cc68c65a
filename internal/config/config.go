// Package config reads the bot configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/derbot/internal/database"
	"github.com/joho/godotenv"
)

// Config is the complete process configuration.
type Config struct {
	BotToken        string
	AdminID         int64
	DB              database.Config
	LocalesDir      string
	NounsFile       string
	OpenAI          openAIConfig
	ReminderHour    int
	FillInterval    time.Duration
	SampleWindow    int
	LogLevel        slog.Level
	LogFormat       string
	EnableScheduler bool
}

type openAIConfig struct {
	APIKey string
	Model  string
	URL    string
}

// Load reads envFile when it exists and then builds the configuration from
// the environment. Variables already set in the environment win over the
// file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables.
func FromEnv() (*Config, error) {
	token := str("TELEGRAM_BOT_TOKEN", "")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	cfg := &Config{
		BotToken:   token,
		AdminID:    int64Var("ADMIN_USER_ID", 0),
		LocalesDir: str("LOCALES_DIR", ""),
		NounsFile:  str("NOUNS_FILE", ""),
		OpenAI: openAIConfig{
			APIKey: str("OPENAI_API_KEY", ""),
			Model:  str("OPENAI_MODEL", ""),
			URL:    str("OPENAI_URL", ""),
		},
		ReminderHour:    integer("REMINDER_HOUR", 18),
		FillInterval:    duration("FILL_INTERVAL", time.Hour),
		SampleWindow:    integer("SAMPLE_WINDOW", 20),
		LogLevel:        logLevel(str("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(str("LOG_FORMAT", "text")),
		EnableScheduler: boolean("ENABLE_SCHEDULER", true),
	}

	switch strings.ToLower(str("DB_TYPE", "sqlite")) {
	case "postgres", "postgresql":
		cfg.DB = database.Config{Driver: database.DriverPostgres, DSN: str("DATABASE_URL", "")}
		if cfg.DB.DSN == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set when DB_TYPE is postgres")
		}
	case "sqlite", "sqlite3":
		cfg.DB = database.Config{Driver: database.DriverSQLite, DSN: str("DB_PATH", "data/derbot.db")}
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", os.Getenv("DB_TYPE"))
	}

	if cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
		return nil, fmt.Errorf("REMINDER_HOUR must be between 0 and 23, got %d", cfg.ReminderHour)
	}
	return cfg, nil
}

func str(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return strings.TrimSpace(val)
}

func integer(key string, def int) int {
	val, err := strconv.Atoi(str(key, ""))
	if err != nil {
		return def
	}
	return val
}

func int64Var(key string, def int64) int64 {
	val, err := strconv.ParseInt(str(key, ""), 10, 64)
	if err != nil {
		return def
	}
	return val
}

func duration(key string, def time.Duration) time.Duration {
	val, err := time.ParseDuration(str(key, ""))
	if err != nil {
		return def
	}
	return val
}

func boolean(key string, def bool) bool {
	switch strings.ToLower(str(key, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
