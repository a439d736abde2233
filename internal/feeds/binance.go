package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"xarb-scanner/internal/market"

	"go.uber.org/zap"
)

const ExchangeBinance = "binance"

// Binance streams top-of-book from the combined bookTicker stream and polls
// funding from the futures premium index.
type Binance struct {
	base
}

func NewBinance(opts Options, log *zap.Logger) *Binance {
	return &Binance{base: newBase(ExchangeBinance, opts, log)}
}

func (b *Binance) streamURL() string {
	streams := make([]string, 0, len(b.opts.Symbols))
	for _, sym := range b.opts.Symbols {
		streams = append(streams, strings.ToLower(sym)+"usdt@bookTicker")
	}
	return strings.TrimRight(b.opts.WSURL, "/") + "?streams=" + strings.Join(streams, "/")
}

func (b *Binance) Run(ctx context.Context, emit func(market.Tick)) error {
	client := b.wsClient(b.streamURL(), nil)
	return client.Run(ctx, func(data []byte) {
		tick, ok, err := b.parse(data)
		if err != nil {
			b.log.Debug("skip book ticker", zap.Error(err))
			return
		}
		if ok {
			emit(tick)
		}
	})
}

type binanceBookTicker struct {
	Symbol string `json:"s"`
	BidPx  string `json:"b"`
	BidQty string `json:"B"`
	AskPx  string `json:"a"`
	AskQty string `json:"A"`
}

func (b *Binance) parse(data []byte) (market.Tick, bool, error) {
	var envelope struct {
		Stream string          `json:"stream"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return market.Tick{}, false, err
	}
	payload := []byte(envelope.Data)
	if len(payload) == 0 {
		payload = data
	}
	var bt binanceBookTicker
	if err := json.Unmarshal(payload, &bt); err != nil {
		return market.Tick{}, false, err
	}
	if bt.Symbol == "" {
		return market.Tick{}, false, nil
	}
	symbol := baseSymbol(bt.Symbol)
	if !b.watched(symbol) {
		return market.Tick{}, false, nil
	}
	bid, err := parseLevel(bt.BidPx, bt.BidQty)
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("%s bid: %w", symbol, err)
	}
	ask, err := parseLevel(bt.AskPx, bt.AskQty)
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("%s ask: %w", symbol, err)
	}
	return market.Tick{
		Exchange: ExchangeBinance,
		Symbol:   symbol,
		Bids:     []market.Level{bid},
		Asks:     []market.Level{ask},
		Funding:  b.funding.Get(symbol),
	}, true, nil
}

func (b *Binance) FetchFunding(ctx context.Context) (map[string]float64, error) {
	var items []map[string]any
	if err := b.rest.Get(ctx, "/fapi/v1/premiumIndex", nil, &items); err != nil {
		return nil, fmt.Errorf("binance premium index: %w", err)
	}
	rates := make(map[string]float64)
	for _, item := range items {
		symbol := baseSymbol(stringFromMap(item, "symbol"))
		if !b.watched(symbol) {
			continue
		}
		if rate, ok := floatFromMap(item, "lastFundingRate"); ok {
			rates[symbol] = rate
		}
	}
	return rates, nil
}
