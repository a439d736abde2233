package feeds

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FundingBook caches the latest funding rate per symbol for one exchange.
type FundingBook struct {
	mu        sync.RWMutex
	rates     map[string]float64
	updatedAt time.Time
}

func NewFundingBook() *FundingBook {
	return &FundingBook{rates: make(map[string]float64)}
}

// Get returns 0 for symbols that have not been polled yet.
func (b *FundingBook) Get(symbol string) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rates[strings.ToUpper(symbol)]
}

// Merge overwrites the given rates and keeps the rest.
func (b *FundingBook) Merge(rates map[string]float64, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sym, rate := range rates {
		b.rates[strings.ToUpper(sym)] = rate
	}
	b.updatedAt = now
}

func (b *FundingBook) UpdatedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updatedAt
}

// PollFunding refreshes feed's funding book immediately and then every
// interval until ctx is done. Poll failures keep the previous rates.
func PollFunding(ctx context.Context, feed Feed, interval time.Duration, log *zap.Logger, onFail func()) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	poll := func() {
		rates, err := feed.FetchFunding(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if onFail != nil {
				onFail()
			}
			log.Warn("funding poll failed", zap.String("exchange", feed.Exchange()), zap.Error(err))
			return
		}
		feed.Funding().Merge(rates, time.Now())
		log.Debug("funding refreshed", zap.String("exchange", feed.Exchange()), zap.Int("symbols", len(rates)))
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}
