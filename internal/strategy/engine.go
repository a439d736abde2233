package strategy

import (
	"math"
	"time"

	"xarb-scanner/internal/command"
	"xarb-scanner/internal/history"
	"xarb-scanner/internal/market"
	"xarb-scanner/internal/quant"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type routeSignal struct {
	streak   int
	sentinel *Sentinel
}

// Result is the outcome of one decision tick.
type Result struct {
	Commands []command.TradeCommand
	Routes   []RouteStatus
	Position Position
}

// Engine evaluates every route once per tick and drives the single
// system-wide position. It is not safe for concurrent Evaluate calls.
type Engine struct {
	params   Params
	log      *zap.Logger
	history  *history.Tracker[RouteKey]
	signals  map[RouteKey]*routeSignal
	position *PositionMachine
}

func NewEngine(params Params, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if params.Payouts == nil {
		params.Payouts = quant.DefaultPayoutTable()
	}
	return &Engine{
		params:   params,
		log:      log,
		history:  history.NewTracker[RouteKey](params.HistoryCapacity),
		signals:  make(map[RouteKey]*routeSignal),
		position: NewPositionMachine(),
	}
}

func (e *Engine) Position() Position {
	return e.position.Current()
}

func (e *Engine) Restore(p Position) {
	e.position.Restore(p)
}

func (e *Engine) Evaluate(snap market.Snapshot, now time.Time) Result {
	routes := make([]RouteStatus, 0, len(e.params.Symbols)*len(e.params.Exchanges))
	for _, symbol := range e.params.Symbols {
		for i := 0; i < len(e.params.Exchanges); i++ {
			for j := i + 1; j < len(e.params.Exchanges); j++ {
				routes = append(routes, e.evaluateRoute(snap, symbol, e.params.Exchanges[i], e.params.Exchanges[j], now))
			}
		}
	}

	var cmds []command.TradeCommand
	pos := e.position.Current()
	if pos.IsOpen() {
		if cmd, ok := e.checkExit(snap, pos, now); ok {
			cmds = append(cmds, cmd)
		}
	} else if e.reentryReady(pos, now) {
		for _, st := range routes {
			if !e.qualifies(st) {
				continue
			}
			if !e.position.Open(st.Route, st.Basis, now) {
				break
			}
			e.log.Info("position opened",
				zap.String("route", st.Route.String()),
				zap.Float64("basis", st.Basis),
				zap.Float64("net", st.Net),
				zap.String("tier", string(st.Tier)),
				zap.Int("streak", st.Streak),
			)
			cmds = append(cmds, command.TradeCommand{
				ID:     uuid.NewString(),
				Kind:   command.KindOpen,
				Symbol: st.Route.Symbol,
				Short:  st.Route.Short,
				Long:   st.Route.Long,
				Basis:  st.Basis,
				Tier:   string(st.Tier),
			})
			break
		}
	}

	pos = e.position.Current()
	if pos.IsOpen() {
		for i := range routes {
			if routes[i].Route == pos.Route {
				routes[i].Active = true
			}
		}
	}
	return Result{Commands: cmds, Routes: routes, Position: pos}
}

func (e *Engine) evaluateRoute(snap market.Snapshot, symbol, exA, exB string, now time.Time) RouteStatus {
	a, okA := snap.Get(exA, symbol)
	b, okB := snap.Get(exB, symbol)
	if !okA || !okB {
		return RouteStatus{Route: NewRouteKey(exA, exB, symbol), Offline: true, Tier: TierNoise}
	}

	short, long := a, b
	if quant.VWAP(b.Bids, e.params.TradeSizeUSD) > quant.VWAP(a.Bids, e.params.TradeSizeUSD) {
		short, long = b, a
	}
	key := NewRouteKey(short.Exchange, long.Exchange, symbol)
	e.resetSignal(RouteKey{Short: key.Long, Long: key.Short, Symbol: key.Symbol})

	basis, ok := e.basis(short, long)
	if !ok {
		return RouteStatus{Route: key, Offline: true, Tier: TierNoise}
	}
	net := basis - e.params.FeeRate
	tier := e.params.Tiers.Classify(net)
	series := e.history.Push(key, basis)
	slope := quant.RegressionSlope(series)

	sig := e.signal(key)
	if tier != TierNoise && slope > 0 {
		sig.streak++
	} else {
		sig.streak = 0
	}

	shortOBI := quant.WeightedOBI(short.Bids, short.Asks)
	longOBI := quant.WeightedOBI(long.Bids, long.Asks)
	stable := sig.sentinel.Observe(shortOBI < e.params.ShortOBIMax && longOBI > e.params.LongOBIMin, now)

	return RouteStatus{
		Route:           key,
		Basis:           basis,
		Net:             net,
		FundingDiff:     short.Funding - long.Funding,
		Slope:           slope,
		Volatility:      quant.StdDev(series),
		Streak:          sig.streak,
		Tier:            tier,
		Stable:          stable,
		ShortOBI:        shortOBI,
		LongOBI:         longOBI,
		SecondsToPayout: e.secondsToPayout(short, long, now),
	}
}

func (e *Engine) qualifies(st RouteStatus) bool {
	if st.Offline || !st.Stable || st.Streak < e.params.MinStreak {
		return false
	}
	switch st.Tier {
	case TierGreatEntry, TierSniper:
		return true
	}
	return st.SecondsToPayout < e.params.PayoutEntryWindow.Seconds() && st.Net > e.params.PayoutEntryNet
}

// checkExit prices the open route in its entry orientation regardless of
// which leg currently has the higher bid.
func (e *Engine) checkExit(snap market.Snapshot, pos Position, now time.Time) (command.TradeCommand, bool) {
	short, okS := snap.Get(pos.Route.Short, pos.Route.Symbol)
	long, okL := snap.Get(pos.Route.Long, pos.Route.Symbol)
	if !okS || !okL {
		return command.TradeCommand{}, false
	}
	cur, ok := e.basis(short, long)
	if !ok {
		return command.TradeCommand{}, false
	}
	entry := pos.EntryBasis
	gain := entry - cur
	ttp := e.secondsToPayout(short, long, now)

	reason := ""
	switch {
	case entry > 0 && gain/entry > e.params.TakeProfitRatio:
		reason = "take_profit"
	case cur > entry+e.params.StopLoss:
		reason = "stop_loss"
	case ttp < e.params.PayoutExitWindow.Seconds() && gain > 0:
		reason = "payout"
	default:
		return command.TradeCommand{}, false
	}

	closed, ok := e.position.Close(now)
	if !ok {
		return command.TradeCommand{}, false
	}
	e.log.Info("position closed",
		zap.String("route", closed.Route.String()),
		zap.String("reason", reason),
		zap.Float64("entry_basis", entry),
		zap.Float64("exit_basis", cur),
		zap.Duration("held", now.Sub(closed.OpenedAt)),
	)
	return command.TradeCommand{
		ID:     uuid.NewString(),
		Kind:   command.KindClose,
		Symbol: closed.Route.Symbol,
		Short:  closed.Route.Short,
		Long:   closed.Route.Long,
		Basis:  cur,
	}, true
}

func (e *Engine) reentryReady(pos Position, now time.Time) bool {
	if e.params.ReentryCooldown <= 0 || pos.ClosedAt.IsZero() {
		return true
	}
	return now.Sub(pos.ClosedAt) >= e.params.ReentryCooldown
}

// basis is (shortBid - longAsk) / longAsk on liquidity-adjusted prices.
func (e *Engine) basis(short, long market.MarketState) (float64, bool) {
	bid := quant.VWAP(short.Bids, e.params.TradeSizeUSD)
	ask := quant.VWAP(long.Asks, e.params.TradeSizeUSD)
	if bid <= 0 || ask <= 0 {
		return 0, false
	}
	return (bid - ask) / ask, true
}

func (e *Engine) secondsToPayout(short, long market.MarketState, now time.Time) float64 {
	return math.Min(
		e.params.Payouts.SecondsToPayout(short.Exchange, short.Funding, now),
		e.params.Payouts.SecondsToPayout(long.Exchange, long.Funding, now),
	)
}

func (e *Engine) signal(key RouteKey) *routeSignal {
	sig, ok := e.signals[key]
	if !ok {
		sig = &routeSignal{sentinel: NewSentinel(e.params.SentinelCooldown)}
		e.signals[key] = sig
	}
	return sig
}

func (e *Engine) resetSignal(key RouteKey) {
	if sig, ok := e.signals[key]; ok {
		sig.streak = 0
		sig.sentinel.Observe(false, time.Time{})
	}
}
