package view

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"xarb-scanner/internal/quant"
	"xarb-scanner/internal/strategy"

	"github.com/vmihailenco/msgpack/v5"
)

// RouteView is one row of the route table shown to operators.
type RouteView struct {
	Route           string  `msgpack:"route" json:"route"`
	Symbol          string  `msgpack:"symbol" json:"symbol"`
	Short           string  `msgpack:"short" json:"short"`
	Long            string  `msgpack:"long" json:"long"`
	BasisPct        float64 `msgpack:"basis_pct" json:"basis_pct"`
	NetPct          float64 `msgpack:"net_pct" json:"net_pct"`
	FundingDiff     float64 `msgpack:"funding_diff" json:"funding_diff"`
	Streak          int     `msgpack:"streak" json:"streak"`
	Tier            string  `msgpack:"tier" json:"tier"`
	Trend           string  `msgpack:"trend" json:"trend"`
	Stable          bool    `msgpack:"stable" json:"stable"`
	SecondsToPayout float64 `msgpack:"ttp" json:"ttp"`
	Offline         bool    `msgpack:"offline" json:"offline"`
	Active          bool    `msgpack:"active" json:"active"`
}

type PositionView struct {
	State      string    `msgpack:"state" json:"state"`
	Route      string    `msgpack:"route,omitempty" json:"route,omitempty"`
	EntryBasis float64   `msgpack:"entry_basis,omitempty" json:"entry_basis,omitempty"`
	OpenedAt   time.Time `msgpack:"opened_at,omitempty" json:"opened_at,omitempty"`
}

type Snapshot struct {
	GeneratedAt time.Time    `msgpack:"generated_at" json:"generated_at"`
	Position    PositionView `msgpack:"position" json:"position"`
	Routes      []RouteView  `msgpack:"routes" json:"routes"`
}

func FromResult(res strategy.Result, now time.Time) Snapshot {
	out := Snapshot{
		GeneratedAt: now.UTC(),
		Position:    PositionView{State: string(res.Position.State)},
		Routes:      make([]RouteView, 0, len(res.Routes)),
	}
	if res.Position.IsOpen() {
		out.Position.Route = res.Position.Route.String()
		out.Position.EntryBasis = res.Position.EntryBasis
		out.Position.OpenedAt = res.Position.OpenedAt.UTC()
	}
	for _, st := range res.Routes {
		row := RouteView{
			Route:   st.Route.String(),
			Symbol:  st.Route.Symbol,
			Short:   st.Route.Short,
			Long:    st.Route.Long,
			Offline: st.Offline,
			Tier:    string(st.Tier),
			Active:  st.Active,
		}
		if !st.Offline {
			row.BasisPct = st.Basis * 100
			row.NetPct = st.Net * 100
			row.FundingDiff = st.FundingDiff
			row.Streak = st.Streak
			row.Trend = string(quant.ClassifyTrend(st.Slope, st.Volatility))
			row.Stable = st.Stable
			row.SecondsToPayout = st.SecondsToPayout
		}
		out.Routes = append(out.Routes, row)
	}
	return out
}

func Encode(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode view: %w", err)
	}
	return buf.Bytes(), nil
}

func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode view: %w", err)
	}
	return s, nil
}

// Board holds the latest snapshot for readers outside the decision loop.
type Board struct {
	mu   sync.RWMutex
	snap Snapshot
}

func (b *Board) Set(s Snapshot) {
	b.mu.Lock()
	b.snap = s
	b.mu.Unlock()
}

func (b *Board) Get() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}
