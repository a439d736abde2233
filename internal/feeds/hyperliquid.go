package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"xarb-scanner/internal/market"

	"go.uber.org/zap"
)

const (
	ExchangeHyperliquid = "hyperliquid"

	hyperliquidDepth = 5
)

var hyperliquidPing = map[string]string{"method": "ping"}

// Hyperliquid streams l2Book snapshots and polls funding from
// metaAndAssetCtxs.
type Hyperliquid struct {
	base
}

func NewHyperliquid(opts Options, log *zap.Logger) *Hyperliquid {
	return &Hyperliquid{base: newBase(ExchangeHyperliquid, opts, log)}
}

func (h *Hyperliquid) Run(ctx context.Context, emit func(market.Tick)) error {
	client := h.wsClient(h.opts.WSURL, hyperliquidPing)
	for _, sym := range h.opts.Symbols {
		sub := map[string]any{
			"method":       "subscribe",
			"subscription": map[string]string{"type": "l2Book", "coin": strings.ToUpper(sym)},
		}
		if err := client.Subscribe(ctx, sub); err != nil {
			return err
		}
	}
	return client.Run(ctx, func(data []byte) {
		tick, ok, err := h.parse(data)
		if err != nil {
			h.log.Debug("skip l2Book message", zap.Error(err))
			return
		}
		if ok {
			emit(tick)
		}
	})
}

type hyperliquidLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
}

type hyperliquidBook struct {
	Channel string `json:"channel"`
	Data    struct {
		Coin   string               `json:"coin"`
		Levels [][]hyperliquidLevel `json:"levels"`
	} `json:"data"`
}

func (h *Hyperliquid) parse(data []byte) (market.Tick, bool, error) {
	var msg hyperliquidBook
	if err := json.Unmarshal(data, &msg); err != nil {
		return market.Tick{}, false, err
	}
	if msg.Channel != "l2Book" {
		return market.Tick{}, false, nil
	}
	symbol := strings.ToUpper(msg.Data.Coin)
	if !h.watched(symbol) {
		return market.Tick{}, false, nil
	}
	if len(msg.Data.Levels) != 2 {
		return market.Tick{}, false, fmt.Errorf("%s: expected 2 book sides, got %d", symbol, len(msg.Data.Levels))
	}
	bids, err := hyperliquidSide(msg.Data.Levels[0])
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("%s bids: %w", symbol, err)
	}
	asks, err := hyperliquidSide(msg.Data.Levels[1])
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("%s asks: %w", symbol, err)
	}
	return market.Tick{
		Exchange: ExchangeHyperliquid,
		Symbol:   symbol,
		Bids:     bids,
		Asks:     asks,
		Funding:  h.funding.Get(symbol),
	}, true, nil
}

func hyperliquidSide(levels []hyperliquidLevel) ([]market.Level, error) {
	pairs := make([][]string, 0, len(levels))
	for _, lvl := range levels {
		pairs = append(pairs, []string{lvl.Px, lvl.Sz})
	}
	return parsePairs(pairs, hyperliquidDepth)
}

func (h *Hyperliquid) FetchFunding(ctx context.Context) (map[string]float64, error) {
	var payload any
	if err := h.rest.Post(ctx, "/info", map[string]string{"type": "metaAndAssetCtxs"}, &payload); err != nil {
		return nil, fmt.Errorf("hyperliquid metaAndAssetCtxs: %w", err)
	}
	universe, ctxs := extractUniverseAndCtxs(payload)
	if len(universe) == 0 || len(ctxs) == 0 {
		return nil, errors.New("metaAndAssetCtxs missing universe or asset contexts")
	}
	rates := make(map[string]float64)
	for i, entry := range universe {
		meta, ok := toMap(entry)
		if !ok {
			continue
		}
		symbol := strings.ToUpper(stringFromMap(meta, "name", "coin"))
		if !h.watched(symbol) {
			continue
		}
		assetCtx, ok := indexedMap(ctxs, i)
		if !ok {
			continue
		}
		if rate, ok := floatFromMap(assetCtx, "funding", "fundingRate"); ok {
			rates[symbol] = rate
		}
	}
	return rates, nil
}
