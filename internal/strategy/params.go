package strategy

import (
	"time"

	"xarb-scanner/internal/config"
	"xarb-scanner/internal/quant"
)

type Params struct {
	Symbols         []string
	Exchanges       []string
	TradeSizeUSD    float64
	FeeRate         float64
	HistoryCapacity int
	Tiers           Tiers
	Payouts         quant.PayoutTable

	MinStreak         int
	SentinelCooldown  time.Duration
	ShortOBIMax       float64
	LongOBIMin        float64
	PayoutEntryWindow time.Duration
	PayoutEntryNet    float64

	TakeProfitRatio  float64
	StopLoss         float64
	PayoutExitWindow time.Duration
	ReentryCooldown  time.Duration
}

func DefaultParams() Params {
	return Params{
		Symbols:           []string{"BTC", "ETH", "SOL", "TIA", "ARB"},
		Exchanges:         []string{"binance", "hyperliquid", "bybit"},
		TradeSizeUSD:      1000,
		FeeRate:           0.00105,
		HistoryCapacity:   1200,
		Tiers:             Tiers{Acceptable: 0.0002, GreatEntry: 0.0005, Sniper: 0.0015},
		Payouts:           quant.DefaultPayoutTable(),
		MinStreak:         5,
		SentinelCooldown:  500 * time.Millisecond,
		ShortOBIMax:       0.6,
		LongOBIMin:        -0.6,
		PayoutEntryWindow: 600 * time.Second,
		PayoutEntryNet:    0.0003,
		TakeProfitRatio:   0.80,
		StopLoss:          0.001,
		PayoutExitWindow:  30 * time.Second,
	}
}

// ParamsFromConfig expects a config that already went through config.Load.
func ParamsFromConfig(cfg config.StrategyConfig) Params {
	payouts := quant.DefaultPayoutTable()
	for exchange, schedule := range cfg.PayoutSchedules {
		payouts[exchange] = quant.Schedule(schedule)
	}
	return Params{
		Symbols:         append([]string(nil), cfg.Symbols...),
		Exchanges:       append([]string(nil), cfg.Exchanges...),
		TradeSizeUSD:    cfg.TradeSizeUSD,
		FeeRate:         cfg.FeeRate,
		HistoryCapacity: cfg.HistoryCapacity,
		Tiers: Tiers{
			Acceptable: cfg.AcceptableNet,
			GreatEntry: cfg.GreatEntryNet,
			Sniper:     cfg.SniperNet,
		},
		Payouts:           payouts,
		MinStreak:         cfg.MinStreak,
		SentinelCooldown:  cfg.SentinelCooldown,
		ShortOBIMax:       cfg.ShortOBIMax,
		LongOBIMin:        cfg.LongOBIMin,
		PayoutEntryWindow: cfg.PayoutEntryWindow,
		PayoutEntryNet:    cfg.PayoutEntryNet,
		TakeProfitRatio:   cfg.TakeProfitRatio,
		StopLoss:          cfg.StopLoss,
		PayoutExitWindow:  cfg.PayoutExitWindow,
		ReentryCooldown:   cfg.ReentryCooldown,
	}
}
