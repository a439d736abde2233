package feeds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"xarb-scanner/internal/config"
	"xarb-scanner/internal/market"
	"xarb-scanner/internal/metrics"
)

type fakeFeed struct {
	base
	ticks   []market.Tick
	polls   chan struct{}
	failing bool
}

func newFakeFeed(ticks ...market.Tick) *fakeFeed {
	return &fakeFeed{
		base:  newBase("fake", Options{Symbols: []string{"BTC"}}, nopLog),
		ticks: ticks,
		polls: make(chan struct{}, 16),
	}
}

func (f *fakeFeed) Run(ctx context.Context, emit func(market.Tick)) error {
	for _, tick := range f.ticks {
		emit(tick)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeFeed) FetchFunding(context.Context) (map[string]float64, error) {
	select {
	case f.polls <- struct{}{}:
	default:
	}
	if f.failing {
		return nil, errors.New("boom")
	}
	return map[string]float64{"BTC": 0.0002}, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	channel  string
	payloads []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channel = channel
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *recordingPublisher) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.payloads...)
}

func TestRunnerPublishesWireTicks(t *testing.T) {
	feed := newFakeFeed(market.Tick{
		Exchange: "binance",
		Symbol:   "BTC",
		Bids:     []market.Level{{Price: 100.5, Qty: 2}},
		Asks:     []market.Level{{Price: 100.6, Qty: 3}},
		Funding:  0.0001,
	})
	pub := &recordingPublisher{}
	runner := NewRunner([]Feed{feed}, pub, RunnerConfig{Channel: "market:data", FundingInterval: time.Hour}, nil, nopLog)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(pub.snapshot()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("no tick published")
		case <-time.After(5 * time.Millisecond):
		}
	}
	select {
	case <-feed.polls:
	case <-deadline:
		t.Fatalf("funding poller did not run")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}

	got := pub.snapshot()[0]
	if got != "binance:BTC:100.5,2|100.6,3:0.0001" {
		t.Fatalf("unexpected payload %s", got)
	}
	if pub.channel != "market:data" {
		t.Fatalf("unexpected channel %s", pub.channel)
	}
	if _, err := market.ParseTick(got); err != nil {
		t.Fatalf("published tick does not parse: %v", err)
	}
	if feed.Funding().Get("BTC") != 0.0002 {
		t.Fatalf("funding book not refreshed")
	}
}

func TestRunnerCountsPublishFailures(t *testing.T) {
	prom := metrics.NewPrometheus()
	feed := newFakeFeed(market.Tick{Exchange: "bybit", Symbol: "ETH"})
	feed.failing = true
	pub := &recordingPublisher{err: errors.New("redis down")}
	runner := NewRunner([]Feed{feed}, pub, RunnerConfig{Channel: "c", FundingInterval: time.Hour}, prom.Metrics, nopLog)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if len(pub.snapshot()) != 1 {
		t.Fatalf("expected one publish attempt")
	}
}

func TestRunnerWithoutFeeds(t *testing.T) {
	runner := NewRunner(nil, &recordingPublisher{}, RunnerConfig{}, nil, nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error without feeds")
	}
}

func TestFromConfig(t *testing.T) {
	disabled := false
	cfg := config.FeedsConfig{Bybit: config.FeedConfig{Enabled: &disabled}}
	feeds := FromConfig(cfg, []string{"hyperliquid", "bybit", "binance", "kraken"}, []string{"BTC"}, nopLog, nil)
	if len(feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(feeds))
	}
	if feeds[0].Exchange() != ExchangeHyperliquid || feeds[1].Exchange() != ExchangeBinance {
		t.Fatalf("unexpected feed order: %s, %s", feeds[0].Exchange(), feeds[1].Exchange())
	}
}
