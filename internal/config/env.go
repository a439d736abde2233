package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadEnv loads KEY=VALUE pairs from path into the process environment.
// Existing variables win and a missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env %s: %w", path, err)
	}
	return nil
}

type envOverrides struct {
	RedisAddr      string `env:"ARB_REDIS_ADDR"`
	RedisPassword  string `env:"ARB_REDIS_PASSWORD"`
	TelegramToken  string `env:"ARB_TELEGRAM_TOKEN"`
	TelegramChatID string `env:"ARB_TELEGRAM_CHAT_ID"`
	LogLevel       string `env:"ARB_LOG_LEVEL"`
	MetricsAddress string `env:"ARB_METRICS_ADDRESS"`
	SQLitePath     string `env:"ARB_SQLITE_PATH"`
}

func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env overrides: %w", err)
	}
	if o.RedisAddr != "" {
		cfg.Redis.Addr = o.RedisAddr
	}
	if o.RedisPassword != "" {
		cfg.Redis.Password = o.RedisPassword
	}
	if o.TelegramToken != "" {
		cfg.Telegram.Token = o.TelegramToken
	}
	if o.TelegramChatID != "" {
		cfg.Telegram.ChatID = o.TelegramChatID
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.MetricsAddress != "" {
		cfg.Metrics.Address = o.MetricsAddress
	}
	if o.SQLitePath != "" {
		cfg.State.SQLitePath = o.SQLitePath
	}
	return nil
}
