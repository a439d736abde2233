package feeds

import (
	"context"
	"time"

	"xarb-scanner/internal/config"
	"xarb-scanner/internal/market"
	"xarb-scanner/internal/rest"
	"xarb-scanner/internal/ws"

	"go.uber.org/zap"
)

// Feed streams normalized ticks for one exchange and knows how to fetch its
// funding rates.
type Feed interface {
	Exchange() string
	Run(ctx context.Context, emit func(market.Tick)) error
	FetchFunding(ctx context.Context) (map[string]float64, error)
	Funding() *FundingBook
}

type Options struct {
	WSURL          string
	RESTURL        string
	Symbols        []string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
	RESTTimeout    time.Duration
	OnReconnect    func()
}

type base struct {
	exchange string
	opts     Options
	symbols  map[string]struct{}
	funding  *FundingBook
	rest     *rest.Client
	log      *zap.Logger
}

func newBase(exchange string, opts Options, log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("exchange", exchange))
	return base{
		exchange: exchange,
		opts:     opts,
		symbols:  symbolSet(opts.Symbols),
		funding:  NewFundingBook(),
		rest:     rest.New(opts.RESTURL, opts.RESTTimeout, log),
		log:      log,
	}
}

func (b *base) Exchange() string { return b.exchange }

func (b *base) Funding() *FundingBook { return b.funding }

func (b *base) watched(symbol string) bool {
	_, ok := b.symbols[symbol]
	return ok
}

func (b *base) wsClient(url string, ping any) *ws.Client {
	return ws.New(ws.Options{
		URL:            url,
		ReconnectDelay: b.opts.ReconnectDelay,
		PingInterval:   b.opts.PingInterval,
		Ping:           ping,
		OnReconnect:    b.opts.OnReconnect,
	}, b.log)
}

// FromConfig builds the enabled feeds for the configured exchanges, in
// exchange order. Unknown exchange ids are logged and skipped.
func FromConfig(cfg config.FeedsConfig, exchanges, symbols []string, log *zap.Logger, onReconnect func()) []Feed {
	if log == nil {
		log = zap.NewNop()
	}
	opts := func(fc config.FeedConfig) Options {
		return Options{
			WSURL:          fc.WSURL,
			RESTURL:        fc.RESTURL,
			Symbols:        symbols,
			ReconnectDelay: cfg.ReconnectDelay,
			PingInterval:   cfg.PingInterval,
			RESTTimeout:    cfg.RESTTimeout,
			OnReconnect:    onReconnect,
		}
	}
	var out []Feed
	for _, ex := range exchanges {
		switch ex {
		case ExchangeBinance:
			if cfg.Binance.EnabledValue() {
				out = append(out, NewBinance(opts(cfg.Binance), log))
			}
		case ExchangeBybit:
			if cfg.Bybit.EnabledValue() {
				out = append(out, NewBybit(opts(cfg.Bybit), log))
			}
		case ExchangeHyperliquid:
			if cfg.Hyperliquid.EnabledValue() {
				out = append(out, NewHyperliquid(opts(cfg.Hyperliquid), log))
			}
		default:
			log.Warn("no feed adapter for exchange", zap.String("exchange", ex))
		}
	}
	return out
}
