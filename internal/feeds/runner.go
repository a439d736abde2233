package feeds

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"xarb-scanner/internal/market"
	"xarb-scanner/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Publisher interface {
	Publish(ctx context.Context, channel, payload string) error
}

type RunnerConfig struct {
	Channel         string
	FundingInterval time.Duration
	PublishTimeout  time.Duration
}

// Runner drives every feed and its funding poller, publishing each tick in
// wire form on the ticks channel.
type Runner struct {
	feeds     []Feed
	publisher Publisher
	cfg       RunnerConfig
	metrics   *metrics.Metrics
	log       *zap.Logger

	publishErrs atomic.Uint64
}

func NewRunner(feeds []Feed, publisher Publisher, cfg RunnerConfig, m *metrics.Metrics, log *zap.Logger) *Runner {
	if m == nil {
		m = metrics.NewNoop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 250 * time.Millisecond
	}
	return &Runner{feeds: feeds, publisher: publisher, cfg: cfg, metrics: m, log: log}
}

// Run blocks until ctx is done. Feed failures are retried inside each feed,
// so a nil error means a clean shutdown.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.feeds) == 0 {
		return errors.New("no feeds configured")
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, feed := range r.feeds {
		feed := feed
		g.Go(func() error {
			r.log.Info("feed started", zap.String("exchange", feed.Exchange()))
			return feed.Run(gctx, func(t market.Tick) { r.publish(gctx, t) })
		})
		g.Go(func() error {
			return PollFunding(gctx, feed, r.cfg.FundingInterval, r.log, r.metrics.FundingPollFailed.Inc)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (r *Runner) publish(ctx context.Context, t market.Tick) {
	r.metrics.TicksIngested.Inc()
	pubCtx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, r.cfg.Channel, market.FormatTick(t)); err != nil {
		r.metrics.PublishFailed.Inc()
		if ctx.Err() != nil {
			return
		}
		// Log the first failure and every 100th after.
		if n := r.publishErrs.Add(1); n == 1 || n%100 == 0 {
			r.log.Warn("tick publish failed", zap.String("exchange", t.Exchange), zap.Uint64("failures", n), zap.Error(err))
		}
	}
}
