package metrics

type Counter interface {
	Inc()
}

type Gauge interface {
	Set(float64)
}

type Metrics struct {
	TicksIngested     Counter
	TicksMalformed    Counter
	TicksDropped      Counter
	FeedReconnects    Counter
	FundingPollFailed Counter
	CommandsPublished Counter
	PublishFailed     Counter
	PositionsOpened   Counter
	PositionsClosed   Counter
	OpenPositions     Gauge
	TrackedMarkets    Gauge
}

type noop struct{}

func (noop) Inc()        {}
func (noop) Set(float64) {}

func NewNoop() *Metrics {
	n := noop{}
	return &Metrics{
		TicksIngested:     n,
		TicksMalformed:    n,
		TicksDropped:      n,
		FeedReconnects:    n,
		FundingPollFailed: n,
		CommandsPublished: n,
		PublishFailed:     n,
		PositionsOpened:   n,
		PositionsClosed:   n,
		OpenPositions:     n,
		TrackedMarkets:    n,
	}
}
