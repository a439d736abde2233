package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"xarb-scanner/internal/alerts"
	"xarb-scanner/internal/bus"
	"xarb-scanner/internal/command"
	"xarb-scanner/internal/config"
	"xarb-scanner/internal/market"
	"xarb-scanner/internal/metrics"
	"xarb-scanner/internal/state"
	"xarb-scanner/internal/state/sqlite"
	"xarb-scanner/internal/strategy"
	"xarb-scanner/internal/view"

	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// Bus is the message transport between ingestors, the scanner and the
// execution side.
type Bus interface {
	Ping(ctx context.Context) error
	Subscribe(ctx context.Context, channel string) (<-chan string, error)
	Publish(ctx context.Context, channel, payload string) error
	SetView(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Close() error
}

type Notifier interface {
	Notify(cmd command.TradeCommand)
	Wait()
}

// App is the scanner process: it folds ticks into the market store and runs
// the decision engine on a fixed interval.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	bus     Bus
	store   state.Store
	market  *market.Store
	engine  *strategy.Engine
	queue   *bus.Queue
	metrics *metrics.Metrics
	prom    *metrics.Prometheus
	board   *view.Board
	alerts  Notifier
	now     func() time.Time

	dropLogged atomic.Bool
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	redisBus, err := bus.NewRedis(ctx, bus.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		_ = redisBus.Close()
		return nil, err
	}
	var prom *metrics.Prometheus
	m := metrics.NewNoop()
	if cfg.Metrics.EnabledValue() {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}
	a := newApp(cfg, log, redisBus, store, m, alerts.NewTelegram(cfg.Telegram, log.Named("alerts")))
	a.prom = prom
	return a, nil
}

func newApp(cfg *config.Config, log *zap.Logger, b Bus, store state.Store, m *metrics.Metrics, notifier Notifier) *App {
	if m == nil {
		m = metrics.NewNoop()
	}
	a := &App{
		cfg:     cfg,
		log:     log,
		bus:     b,
		store:   store,
		market:  market.NewStore(),
		engine:  strategy.NewEngine(strategy.ParamsFromConfig(cfg.Strategy), log.Named("engine")),
		metrics: m,
		board:   &view.Board{},
		alerts:  notifier,
		now:     time.Now,
	}
	a.queue = bus.NewQueue(cfg.Bus.QueueSize, a.onQueueDrop)
	return a
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()
	a.restorePosition(ctx)

	msgs, err := a.bus.Subscribe(ctx, a.cfg.Bus.TicksChannel)
	if err != nil {
		return fmt.Errorf("subscribe ticks: %w", err)
	}
	go a.queue.Feed(ctx, msgs)

	if a.cfg.Metrics.EnabledValue() {
		go func() {
			if err := serveOps(ctx, a.cfg.Metrics.Address, a.router(), a.log); err != nil {
				a.log.Error("ops server failed", zap.Error(err))
			}
		}()
	}

	a.log.Info("scanner started",
		zap.Strings("symbols", a.cfg.Strategy.Symbols),
		zap.Strings("exchanges", a.cfg.Strategy.Exchanges),
		zap.Duration("tick_interval", a.cfg.Strategy.TickInterval),
		zap.String("ticks_channel", a.cfg.Bus.TicksChannel),
		zap.String("commands_channel", a.cfg.Bus.CommandsChannel),
	)

	ticker := time.NewTicker(a.cfg.Strategy.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.tick(ctx)
		case msg, ok := <-a.queue.C():
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("tick subscription closed")
			}
			a.ingest(msg)
		}
	}
}

func (a *App) close() {
	if a.alerts != nil {
		a.alerts.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("state store close failed", zap.Error(err))
		}
	}
	if err := a.bus.Close(); err != nil {
		a.log.Warn("bus close failed", zap.Error(err))
	}
}

func (a *App) onQueueDrop() {
	a.metrics.TicksDropped.Inc()
	if a.dropLogged.CompareAndSwap(false, true) {
		a.log.Warn("ingest queue full, dropping oldest ticks", zap.Int("capacity", a.cfg.Bus.QueueSize))
	}
}

// ingest applies one wire tick. Malformed ticks leave the store untouched.
func (a *App) ingest(raw string) {
	tick, err := market.ParseTick(raw)
	if err != nil {
		a.metrics.TicksMalformed.Inc()
		a.log.Debug("dropping malformed tick", zap.String("raw", raw), zap.Error(err))
		return
	}
	a.market.Apply(tick)
	a.metrics.TicksIngested.Inc()
}

func (a *App) tick(ctx context.Context) {
	now := a.now()
	snap := a.market.Snapshot()
	a.metrics.TrackedMarkets.Set(float64(snap.Len()))

	res := a.engine.Evaluate(snap, now)
	for _, cmd := range res.Commands {
		a.dispatch(ctx, cmd, res.Position, now)
	}
	a.publishView(ctx, res, now)
}

func (a *App) dispatch(ctx context.Context, cmd command.TradeCommand, pos strategy.Position, now time.Time) {
	wire := cmd.Encode()
	pubCtx, cancel := context.WithTimeout(ctx, a.cfg.Bus.PublishTimeout)
	err := a.bus.Publish(pubCtx, a.cfg.Bus.CommandsChannel, wire)
	cancel()
	if err != nil {
		a.metrics.PublishFailed.Inc()
		a.log.Warn("command publish failed", zap.String("command_id", cmd.ID), zap.String("command", wire), zap.Error(err))
	} else {
		a.metrics.CommandsPublished.Inc()
		a.log.Info("command published", zap.String("command_id", cmd.ID), zap.String("command", wire))
	}

	switch cmd.Kind {
	case command.KindOpen:
		a.metrics.PositionsOpened.Inc()
		a.metrics.OpenPositions.Set(1)
	case command.KindClose:
		a.metrics.PositionsClosed.Inc()
		a.metrics.OpenPositions.Set(0)
	}
	a.savePosition(ctx, pos, now)
	if a.alerts != nil {
		a.alerts.Notify(cmd)
	}
}

func (a *App) publishView(ctx context.Context, res strategy.Result, now time.Time) {
	snap := view.FromResult(res, now)
	a.board.Set(snap)
	data, err := view.Encode(snap)
	if err != nil {
		a.log.Warn("view encode failed", zap.Error(err))
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, a.cfg.Bus.PublishTimeout)
	defer cancel()
	if err := a.bus.SetView(pubCtx, a.cfg.Bus.ViewKey, data, a.cfg.Bus.ViewTTL); err != nil {
		a.log.Debug("view publish failed", zap.Error(err))
	}
}

func (a *App) restorePosition(ctx context.Context) {
	snap, ok, err := state.LoadPositionSnapshot(ctx, a.store)
	if err != nil {
		a.log.Warn("position restore failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	pos := positionFromSnapshot(snap)
	a.engine.Restore(pos)
	if pos.IsOpen() {
		a.metrics.OpenPositions.Set(1)
		a.log.Info("restored open position", zap.String("route", pos.Route.String()), zap.Float64("entry_basis", pos.EntryBasis))
	}
}

func (a *App) savePosition(ctx context.Context, pos strategy.Position, now time.Time) {
	if err := state.SavePositionSnapshot(ctx, a.store, snapshotFromPosition(pos, now)); err != nil {
		a.log.Warn("position persist failed", zap.Error(err))
	}
}

func snapshotFromPosition(pos strategy.Position, now time.Time) state.PositionSnapshot {
	return state.PositionSnapshot{
		State:       string(pos.State),
		Symbol:      pos.Route.Symbol,
		Short:       pos.Route.Short,
		Long:        pos.Route.Long,
		EntryBasis:  pos.EntryBasis,
		OpenedAtMS:  unixMilli(pos.OpenedAt),
		ClosedAtMS:  unixMilli(pos.ClosedAt),
		UpdatedAtMS: now.UnixMilli(),
	}
}

func positionFromSnapshot(s state.PositionSnapshot) strategy.Position {
	pos := strategy.Position{
		State:    strategy.State(s.State),
		ClosedAt: fromMilli(s.ClosedAtMS),
	}
	if pos.State == strategy.StateOpen {
		pos.Route = strategy.NewRouteKey(s.Short, s.Long, s.Symbol)
		pos.EntryBasis = s.EntryBasis
		pos.OpenedAt = fromMilli(s.OpenedAtMS)
	}
	return pos
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
