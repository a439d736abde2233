package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"xarb-scanner/internal/market"

	"go.uber.org/zap"
)

const (
	ExchangeBybit = "bybit"

	bybitTopicPrefix = "orderbook.1."
)

var bybitPing = map[string]string{"op": "ping"}

// Bybit streams level-1 books from the v5 linear public stream.
type Bybit struct {
	base
}

func NewBybit(opts Options, log *zap.Logger) *Bybit {
	return &Bybit{base: newBase(ExchangeBybit, opts, log)}
}

func (b *Bybit) Run(ctx context.Context, emit func(market.Tick)) error {
	client := b.wsClient(b.opts.WSURL, bybitPing)
	args := make([]string, 0, len(b.opts.Symbols))
	for _, sym := range b.opts.Symbols {
		args = append(args, bybitTopicPrefix+strings.ToUpper(sym)+"USDT")
	}
	if err := client.Subscribe(ctx, map[string]any{"op": "subscribe", "args": args}); err != nil {
		return err
	}
	return client.Run(ctx, func(data []byte) {
		tick, ok, err := b.parse(data)
		if err != nil {
			b.log.Debug("skip orderbook message", zap.Error(err))
			return
		}
		if ok {
			emit(tick)
		}
	})
}

type bybitBook struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  struct {
		Symbol string     `json:"s"`
		Bids   [][]string `json:"b"`
		Asks   [][]string `json:"a"`
	} `json:"data"`
}

// parse ignores control frames and one-sided updates.
func (b *Bybit) parse(data []byte) (market.Tick, bool, error) {
	var msg bybitBook
	if err := json.Unmarshal(data, &msg); err != nil {
		return market.Tick{}, false, err
	}
	if !strings.HasPrefix(msg.Topic, bybitTopicPrefix) {
		return market.Tick{}, false, nil
	}
	if len(msg.Data.Bids) == 0 || len(msg.Data.Asks) == 0 {
		return market.Tick{}, false, nil
	}
	symbol := baseSymbol(msg.Data.Symbol)
	if !b.watched(symbol) {
		return market.Tick{}, false, nil
	}
	bids, err := parsePairs(msg.Data.Bids, 1)
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("%s bids: %w", symbol, err)
	}
	asks, err := parsePairs(msg.Data.Asks, 1)
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("%s asks: %w", symbol, err)
	}
	return market.Tick{
		Exchange: ExchangeBybit,
		Symbol:   symbol,
		Bids:     bids,
		Asks:     asks,
		Funding:  b.funding.Get(symbol),
	}, true, nil
}

func (b *Bybit) FetchFunding(ctx context.Context) (map[string]float64, error) {
	var resp struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List []map[string]any `json:"list"`
		} `json:"result"`
	}
	if err := b.rest.Get(ctx, "/v5/market/tickers", url.Values{"category": {"linear"}}, &resp); err != nil {
		return nil, fmt.Errorf("bybit tickers: %w", err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit tickers: ret %d: %s", resp.RetCode, resp.RetMsg)
	}
	rates := make(map[string]float64)
	for _, item := range resp.Result.List {
		symbol := baseSymbol(stringFromMap(item, "symbol"))
		if !b.watched(symbol) {
			continue
		}
		if rate, ok := floatFromMap(item, "fundingRate"); ok {
			rates[symbol] = rate
		}
	}
	return rates, nil
}
