package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings.
type Config struct {
	TelegramToken  string        `yaml:"telegram_token"`
	OwnerChatID    int64         `yaml:"owner_chat_id"`
	StorageDriver  string        `yaml:"storage_driver"`
	DatabaseURL    string        `yaml:"database_url"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPrefix    string        `yaml:"redis_prefix"`
	ReportInterval time.Duration `yaml:"report_interval"`
	ReportTime     string        `yaml:"report_time"`
	DefaultTheme   string        `yaml:"default_theme"`
	LogLevel       string        `yaml:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		StorageDriver:  "sqlite",
		DatabaseURL:    "taskmaster.db",
		ReportInterval: 5 * time.Hour,
		DefaultTheme:   "light",
		LogLevel:       "info",
	}
}

// Load reads the optional YAML file at path, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}

	if cfg.StorageDriver == "" {
		cfg.StorageDriver = "sqlite"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskmaster.db"
	}
	switch cfg.DefaultTheme {
	case "light", "dark":
	case "":
		cfg.DefaultTheme = "light"
	default:
		return cfg, fmt.Errorf("default_theme must be light or dark, got %q", cfg.DefaultTheme)
	}
	return cfg, nil
}

// ValidateBot checks the settings the Telegram front end needs.
func (c Config) ValidateBot() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	if c.ReportTime != "" && c.OwnerChatID == 0 {
		return errors.New("report_time needs owner_chat_id")
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := env("TELEGRAM_TOKEN"); v != "" {
		c.TelegramToken = v
	}
	if v := env("TELEGRAM_OWNER_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_OWNER_CHAT_ID: %w", err)
		}
		c.OwnerChatID = id
	}
	if v := env("STORAGE_DRIVER"); v != "" {
		c.StorageDriver = strings.ToLower(v)
	}
	if v := env("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := env("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := env("REPORT_INTERVAL_HOURS"); v != "" {
		c.ReportInterval = parseInterval(v)
	}
	if v := env("REPORT_TIME"); v != "" {
		c.ReportTime = v
	}
	if v := env("DEFAULT_THEME"); v != "" {
		c.DefaultTheme = strings.ToLower(v)
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// parseInterval turns a number of hours into a duration; invalid values disable reports.
func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
