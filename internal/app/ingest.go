package app

import (
	"context"
	"time"

	"xarb-scanner/internal/bus"
	"xarb-scanner/internal/config"
	"xarb-scanner/internal/feeds"
	"xarb-scanner/internal/metrics"

	"go.uber.org/zap"
)

// Ingestor is the feed process: it normalizes exchange streams and publishes
// ticks on the bus.
type Ingestor struct {
	cfg    *config.Config
	log    *zap.Logger
	bus    *bus.Redis
	runner *feeds.Runner
	feeds  []feeds.Feed
	prom   *metrics.Prometheus
}

func NewIngestor(cfg *config.Config, log *zap.Logger) (*Ingestor, error) {
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
	var prom *metrics.Prometheus
	m := metrics.NewNoop()
	if cfg.Metrics.EnabledValue() {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}
	feedList := feeds.FromConfig(cfg.Feeds, cfg.Strategy.Exchanges, cfg.Strategy.Symbols, log.Named("feeds"), m.FeedReconnects.Inc)
	runner := feeds.NewRunner(feedList, redisBus, feeds.RunnerConfig{
		Channel:         cfg.Bus.TicksChannel,
		FundingInterval: cfg.Feeds.FundingInterval,
		PublishTimeout:  cfg.Bus.PublishTimeout,
	}, m, log.Named("runner"))
	return &Ingestor{cfg: cfg, log: log, bus: redisBus, runner: runner, feeds: feedList, prom: prom}, nil
}

func (i *Ingestor) Run(ctx context.Context) error {
	defer func() {
		if err := i.bus.Close(); err != nil {
			i.log.Warn("bus close failed", zap.Error(err))
		}
	}()
	if i.prom != nil {
		router := newRouter(opsRoutes{
			ping:        i.bus.Ping,
			health:      i.health,
			metrics:     i.prom.Handler(),
			metricsPath: i.cfg.Metrics.Path,
		})
		go func() {
			if err := serveOps(ctx, i.cfg.Metrics.Address, router, i.log); err != nil {
				i.log.Error("ops server failed", zap.Error(err))
			}
		}()
	}
	i.log.Info("ingestor started",
		zap.Int("feeds", len(i.feeds)),
		zap.Strings("symbols", i.cfg.Strategy.Symbols),
		zap.String("ticks_channel", i.cfg.Bus.TicksChannel),
	)
	return i.runner.Run(ctx)
}

// health reports funding freshness per feed.
func (i *Ingestor) health(context.Context) map[string]any {
	funding := make(map[string]string, len(i.feeds))
	for _, f := range i.feeds {
		updated := f.Funding().UpdatedAt()
		if updated.IsZero() {
			funding[f.Exchange()] = "pending"
			continue
		}
		funding[f.Exchange()] = updated.UTC().Format(time.RFC3339)
	}
	return map[string]any{"funding_updated": funding}
}
