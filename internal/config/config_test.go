package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug level, got %s", cfg.Log.Level)
	}
	s := cfg.Strategy
	if len(s.Symbols) != 5 || s.Symbols[0] != "BTC" {
		t.Fatalf("unexpected default symbols: %v", s.Symbols)
	}
	if len(s.Exchanges) != 3 || s.Exchanges[1] != "hyperliquid" {
		t.Fatalf("unexpected default exchanges: %v", s.Exchanges)
	}
	if s.TickInterval != 200*time.Millisecond {
		t.Fatalf("unexpected tick interval: %s", s.TickInterval)
	}
	if s.FeeRate != 0.00105 || s.TradeSizeUSD != 1000 {
		t.Fatalf("unexpected cost defaults: fee=%v size=%v", s.FeeRate, s.TradeSizeUSD)
	}
	if s.ReentryCooldown != 0 {
		t.Fatalf("expected no re-entry cooldown by default, got %s", s.ReentryCooldown)
	}
	if cfg.Bus.TicksChannel != "market:data" || cfg.Bus.CommandsChannel != "trade:signals" {
		t.Fatalf("unexpected channels: %+v", cfg.Bus)
	}
	if !cfg.Metrics.EnabledValue() || cfg.Metrics.Address != "127.0.0.1:9001" || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("unexpected metrics defaults: %+v", cfg.Metrics)
	}
	if !cfg.Feeds.Binance.EnabledValue() {
		t.Fatalf("expected feeds enabled by default")
	}
}

func TestLoadNormalizesIdentifiers(t *testing.T) {
	path := writeConfig(t, "strategy:\n  symbols: [\" btc\", eth]\n  exchanges: [Binance, BYBIT]\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Strategy.Symbols[0] != "BTC" || cfg.Strategy.Symbols[1] != "ETH" {
		t.Fatalf("symbols not normalized: %v", cfg.Strategy.Symbols)
	}
	if cfg.Strategy.Exchanges[0] != "binance" || cfg.Strategy.Exchanges[1] != "bybit" {
		t.Fatalf("exchanges not normalized: %v", cfg.Strategy.Exchanges)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"single exchange":   "strategy:\n  exchanges: [binance]\n",
		"duplicate":         "strategy:\n  exchanges: [binance, binance]\n",
		"unknown schedule":  "strategy:\n  payout_schedules:\n    binance: weekly\n",
		"tier order":        "strategy:\n  acceptable_net: 0.001\n  great_entry_net: 0.0005\n",
		"negative cooldown": "strategy:\n  reentry_cooldown: -1s\n",
		"telegram":          "telegram:\n  enabled: true\n",
		"same channels":     "bus:\n  ticks_channel: x\n  commands_channel: x\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadRequiresPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ARB_REDIS_ADDR", "redis:6380")
	t.Setenv("ARB_TELEGRAM_TOKEN", "token")
	t.Setenv("ARB_TELEGRAM_CHAT_ID", "42")
	t.Setenv("ARB_LOG_LEVEL", "warn")

	path := writeConfig(t, "telegram:\n  enabled: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("redis addr not overridden: %s", cfg.Redis.Addr)
	}
	if cfg.Telegram.Token != "token" || cfg.Telegram.ChatID != "42" {
		t.Fatalf("telegram not overridden: %+v", cfg.Telegram)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log level not overridden: %s", cfg.Log.Level)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestLoadEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ARB_TEST_KEEP=file\nARB_TEST_NEW=\"quoted\"\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("ARB_TEST_KEEP", "process")
	t.Setenv("ARB_TEST_NEW", "")
	os.Unsetenv("ARB_TEST_NEW")

	if err := LoadEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := os.Getenv("ARB_TEST_KEEP"); got != "process" {
		t.Fatalf("existing variable overwritten: %s", got)
	}
	if got := os.Getenv("ARB_TEST_NEW"); got != "quoted" {
		t.Fatalf("expected quoted value unwrapped, got %q", got)
	}
	os.Unsetenv("ARB_TEST_NEW")
}

func TestDefaultMatchesEmptyFile(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if cfg.Bus.TicksChannel != "market:data" || len(cfg.Strategy.Exchanges) != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg.Bus)
	}
}
