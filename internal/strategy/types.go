package strategy

import (
	"fmt"
	"strings"
	"time"
)

type State string

type Event string

const (
	StateFlat State = "FLAT"
	StateOpen State = "OPEN"
)

const (
	EventOpen  Event = "OPEN"
	EventClose Event = "CLOSE"
)

type Tier string

const (
	TierNoise      Tier = "NOISE"
	TierAcceptable Tier = "ACCEPTABLE"
	TierGreatEntry Tier = "GREAT_ENTRY"
	TierSniper     Tier = "SNIPER"
)

// RouteKey identifies a directional route: sell Short, buy Long, on Symbol.
type RouteKey struct {
	Short  string
	Long   string
	Symbol string
}

func NewRouteKey(short, long, symbol string) RouteKey {
	return RouteKey{
		Short:  strings.ToLower(short),
		Long:   strings.ToLower(long),
		Symbol: strings.ToUpper(symbol),
	}
}

func (k RouteKey) String() string {
	return fmt.Sprintf("%s:%s->%s", k.Symbol, strings.ToUpper(k.Short), strings.ToUpper(k.Long))
}

func (k RouteKey) IsZero() bool {
	return k == RouteKey{}
}

// Position is the system-wide position. Route and EntryBasis are only set
// while State is StateOpen.
type Position struct {
	State      State
	Route      RouteKey
	EntryBasis float64
	OpenedAt   time.Time
	ClosedAt   time.Time
}

func (p Position) IsOpen() bool {
	return p.State == StateOpen
}

// RouteStatus is the per-tick evaluation of one exchange pair.
type RouteStatus struct {
	Route           RouteKey
	Offline         bool
	Basis           float64
	Net             float64
	FundingDiff     float64
	Slope           float64
	Volatility      float64
	Streak          int
	Tier            Tier
	Stable          bool
	ShortOBI        float64
	LongOBI         float64
	SecondsToPayout float64
	Active          bool
}
