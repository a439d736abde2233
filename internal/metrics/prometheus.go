package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "xarb_scanner"

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
	}
	p.Metrics = &Metrics{
		TicksIngested:     p.counter("ticks_ingested_total", "Ticks applied to the market store."),
		TicksMalformed:    p.counter("ticks_malformed_total", "Ticks rejected by the parser."),
		TicksDropped:      p.counter("ticks_dropped_total", "Ticks dropped because the ingest queue was full."),
		FeedReconnects:    p.counter("feed_reconnects_total", "Exchange websocket reconnects."),
		FundingPollFailed: p.counter("funding_poll_failed_total", "Failed funding rate polls."),
		CommandsPublished: p.counter("commands_published_total", "Trade commands published on the bus."),
		PublishFailed:     p.counter("publish_failed_total", "Trade command publish failures."),
		PositionsOpened:   p.counter("positions_opened_total", "Positions opened by the decision engine."),
		PositionsClosed:   p.counter("positions_closed_total", "Positions closed by the decision engine."),
		OpenPositions:     p.gauge("open_positions", "Currently open positions (0 or 1)."),
		TrackedMarkets:    p.gauge("tracked_markets", "Markets present in the state store."),
	}
	return p
}

func (p *Prometheus) counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
	p.registry.MustRegister(c)
	p.counters[name] = c
	return c
}

func (p *Prometheus) gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
	p.registry.MustRegister(g)
	p.gauges[name] = g
	return g
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
