package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LoggingConfig  `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Bus      BusConfig      `yaml:"bus"`
	Feeds    FeedsConfig    `yaml:"feeds"`
	Strategy StrategyConfig `yaml:"strategy"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	State    StateConfig    `yaml:"state"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BusConfig struct {
	TicksChannel    string        `yaml:"ticks_channel"`
	CommandsChannel string        `yaml:"commands_channel"`
	ViewKey         string        `yaml:"view_key"`
	ViewTTL         time.Duration `yaml:"view_ttl"`
	QueueSize       int           `yaml:"queue_size"`
	PublishTimeout  time.Duration `yaml:"publish_timeout"`
}

type FeedsConfig struct {
	Binance         FeedConfig    `yaml:"binance"`
	Bybit           FeedConfig    `yaml:"bybit"`
	Hyperliquid     FeedConfig    `yaml:"hyperliquid"`
	FundingInterval time.Duration `yaml:"funding_interval"`
	ReconnectDelay  time.Duration `yaml:"reconnect_delay"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	RESTTimeout     time.Duration `yaml:"rest_timeout"`
}

type FeedConfig struct {
	Enabled *bool  `yaml:"enabled"`
	WSURL   string `yaml:"ws_url"`
	RESTURL string `yaml:"rest_url"`
}

func (f FeedConfig) EnabledValue() bool {
	if f.Enabled == nil {
		return true
	}
	return *f.Enabled
}

type StrategyConfig struct {
	Symbols         []string          `yaml:"symbols"`
	Exchanges       []string          `yaml:"exchanges"`
	PayoutSchedules map[string]string `yaml:"payout_schedules"`
	TickInterval    time.Duration     `yaml:"tick_interval"`
	TradeSizeUSD    float64           `yaml:"trade_size_usd"`
	FeeRate         float64           `yaml:"fee_rate"`
	HistoryCapacity int               `yaml:"history_capacity"`

	AcceptableNet float64 `yaml:"acceptable_net"`
	GreatEntryNet float64 `yaml:"great_entry_net"`
	SniperNet     float64 `yaml:"sniper_net"`

	MinStreak         int           `yaml:"min_streak"`
	SentinelCooldown  time.Duration `yaml:"sentinel_cooldown"`
	ShortOBIMax       float64       `yaml:"short_obi_max"`
	LongOBIMin        float64       `yaml:"long_obi_min"`
	PayoutEntryWindow time.Duration `yaml:"payout_entry_window"`
	PayoutEntryNet    float64       `yaml:"payout_entry_net"`

	TakeProfitRatio  float64       `yaml:"take_profit_ratio"`
	StopLoss         float64       `yaml:"stop_loss"`
	PayoutExitWindow time.Duration `yaml:"payout_exit_window"`
	ReentryCooldown  time.Duration `yaml:"reentry_cooldown"`
}

type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

func (m MetricsConfig) EnabledValue() bool {
	if m.Enabled == nil {
		return true
	}
	return *m.Enabled
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

// Default returns the built-in configuration with environment overrides
// applied.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, validate(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Bus.TicksChannel == "" {
		cfg.Bus.TicksChannel = "market:data"
	}
	if cfg.Bus.CommandsChannel == "" {
		cfg.Bus.CommandsChannel = "trade:signals"
	}
	if cfg.Bus.ViewKey == "" {
		cfg.Bus.ViewKey = "scanner:view"
	}
	if cfg.Bus.ViewTTL == 0 {
		cfg.Bus.ViewTTL = 5 * time.Second
	}
	if cfg.Bus.QueueSize == 0 {
		cfg.Bus.QueueSize = 1000
	}
	if cfg.Bus.PublishTimeout == 0 {
		cfg.Bus.PublishTimeout = 250 * time.Millisecond
	}
	applyFeedDefaults(&cfg.Feeds)
	applyStrategyDefaults(&cfg.Strategy)
	if cfg.Metrics.Enabled == nil {
		enabled := true
		cfg.Metrics.Enabled = &enabled
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "127.0.0.1:9001"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/xarb-scanner.db"
	}
}

func applyFeedDefaults(f *FeedsConfig) {
	if f.Binance.WSURL == "" {
		f.Binance.WSURL = "wss://fstream.binance.com/stream"
	}
	if f.Binance.RESTURL == "" {
		f.Binance.RESTURL = "https://fapi.binance.com"
	}
	if f.Bybit.WSURL == "" {
		f.Bybit.WSURL = "wss://stream.bybit.com/v5/public/linear"
	}
	if f.Bybit.RESTURL == "" {
		f.Bybit.RESTURL = "https://api.bybit.com"
	}
	if f.Hyperliquid.WSURL == "" {
		f.Hyperliquid.WSURL = "wss://api.hyperliquid.xyz/ws"
	}
	if f.Hyperliquid.RESTURL == "" {
		f.Hyperliquid.RESTURL = "https://api.hyperliquid.xyz"
	}
	if f.FundingInterval == 0 {
		f.FundingInterval = 30 * time.Second
	}
	if f.ReconnectDelay == 0 {
		f.ReconnectDelay = 5 * time.Second
	}
	if f.PingInterval == 0 {
		f.PingInterval = 20 * time.Second
	}
	if f.RESTTimeout == 0 {
		f.RESTTimeout = 10 * time.Second
	}
}

func applyStrategyDefaults(s *StrategyConfig) {
	if len(s.Symbols) == 0 {
		s.Symbols = []string{"BTC", "ETH", "SOL", "TIA", "ARB"}
	}
	for i := range s.Symbols {
		s.Symbols[i] = strings.ToUpper(strings.TrimSpace(s.Symbols[i]))
	}
	if len(s.Exchanges) == 0 {
		s.Exchanges = []string{"binance", "hyperliquid", "bybit"}
	}
	for i := range s.Exchanges {
		s.Exchanges[i] = strings.ToLower(strings.TrimSpace(s.Exchanges[i]))
	}
	if s.TickInterval == 0 {
		s.TickInterval = 200 * time.Millisecond
	}
	if s.TradeSizeUSD == 0 {
		s.TradeSizeUSD = 1000
	}
	if s.FeeRate == 0 {
		s.FeeRate = 0.00105
	}
	if s.HistoryCapacity == 0 {
		s.HistoryCapacity = 1200
	}
	if s.AcceptableNet == 0 {
		s.AcceptableNet = 0.0002
	}
	if s.GreatEntryNet == 0 {
		s.GreatEntryNet = 0.0005
	}
	if s.SniperNet == 0 {
		s.SniperNet = 0.0015
	}
	if s.MinStreak == 0 {
		s.MinStreak = 5
	}
	if s.SentinelCooldown == 0 {
		s.SentinelCooldown = 500 * time.Millisecond
	}
	if s.ShortOBIMax == 0 {
		s.ShortOBIMax = 0.6
	}
	if s.LongOBIMin == 0 {
		s.LongOBIMin = -0.6
	}
	if s.PayoutEntryWindow == 0 {
		s.PayoutEntryWindow = 600 * time.Second
	}
	if s.PayoutEntryNet == 0 {
		s.PayoutEntryNet = 0.0003
	}
	if s.TakeProfitRatio == 0 {
		s.TakeProfitRatio = 0.80
	}
	if s.StopLoss == 0 {
		s.StopLoss = 0.001
	}
	if s.PayoutExitWindow == 0 {
		s.PayoutExitWindow = 30 * time.Second
	}
}

func validate(cfg *Config) error {
	s := cfg.Strategy
	if len(s.Symbols) == 0 {
		return errors.New("strategy.symbols is required")
	}
	if len(s.Exchanges) < 2 {
		return errors.New("strategy.exchanges needs at least two exchanges")
	}
	seen := make(map[string]struct{}, len(s.Exchanges))
	for _, ex := range s.Exchanges {
		if ex == "" {
			return errors.New("strategy.exchanges contains an empty id")
		}
		if _, dup := seen[ex]; dup {
			return fmt.Errorf("strategy.exchanges lists %s twice", ex)
		}
		seen[ex] = struct{}{}
	}
	for ex, schedule := range s.PayoutSchedules {
		switch schedule {
		case "hourly", "8h", "adaptive":
		default:
			return fmt.Errorf("strategy.payout_schedules.%s: unknown schedule %q", ex, schedule)
		}
	}
	if s.TickInterval < 0 || s.SentinelCooldown < 0 || s.ReentryCooldown < 0 ||
		s.PayoutEntryWindow < 0 || s.PayoutExitWindow < 0 {
		return errors.New("strategy durations must be >= 0")
	}
	if s.TradeSizeUSD <= 0 {
		return errors.New("strategy.trade_size_usd must be > 0")
	}
	if s.FeeRate < 0 {
		return errors.New("strategy.fee_rate must be >= 0")
	}
	if !(s.AcceptableNet < s.GreatEntryNet && s.GreatEntryNet < s.SniperNet) {
		return errors.New("strategy tier thresholds must be strictly increasing")
	}
	if s.HistoryCapacity < 10 {
		return errors.New("strategy.history_capacity must be >= 10")
	}
	if s.MinStreak < 0 {
		return errors.New("strategy.min_streak must be >= 0")
	}
	if s.TakeProfitRatio <= 0 || s.StopLoss <= 0 {
		return errors.New("strategy.take_profit_ratio and strategy.stop_loss must be > 0")
	}
	if cfg.Bus.QueueSize <= 0 {
		return errors.New("bus.queue_size must be > 0")
	}
	if cfg.Bus.TicksChannel == cfg.Bus.CommandsChannel {
		return errors.New("bus.ticks_channel and bus.commands_channel must differ")
	}
	if cfg.Metrics.EnabledValue() && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	if cfg.Telegram.Enabled && (strings.TrimSpace(cfg.Telegram.Token) == "" || strings.TrimSpace(cfg.Telegram.ChatID) == "") {
		return errors.New("telegram.token and telegram.chat_id are required when telegram is enabled")
	}
	return nil
}
