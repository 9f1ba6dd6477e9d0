package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"venue/internal/domain"
)

// Metrics holds the engine's Prometheus instrumentation, grounded on the
// corpus's metrics/prometheus.go collector pattern: CounterVecs/HistogramVecs
// registered once, labeled per call site.
type Metrics struct {
	ordersTotal        *prometheus.CounterVec
	tradesTotal        *prometheus.CounterVec
	matchingLatency    *prometheus.HistogramVec
	invariantViolation *prometheus.CounterVec
	cascadeExhausted   *prometheus.CounterVec
	orderbookDepth     *prometheus.GaugeVec
}

// NewMetrics constructs and registers the engine's metrics against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// default registry across package-level test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venue",
			Name:      "orders_total",
			Help:      "Orders submitted, labeled by symbol and order type.",
		}, []string{"symbol", "type"}),
		tradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venue",
			Name:      "trades_total",
			Help:      "Trades executed, labeled by symbol.",
		}, []string{"symbol"}),
		matchingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "venue",
			Name:      "matching_latency_seconds",
			Help:      "Time spent inside ProcessOrder while holding the symbol guard.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"symbol"}),
		invariantViolation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venue",
			Name:      "invariant_violations_total",
			Help:      "Invariant violations that quarantined a symbol's book.",
		}, []string{"symbol"}),
		cascadeExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venue",
			Name:      "trigger_cascade_exhausted_total",
			Help:      "Submissions whose trigger cascade hit the configured bound.",
		}, []string{"symbol"}),
		orderbookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "venue",
			Name:      "orderbook_price_levels",
			Help:      "Number of resting price levels per side, after the latest submission.",
		}, []string{"symbol", "side"}),
	}
	reg.MustRegister(
		m.ordersTotal,
		m.tradesTotal,
		m.matchingLatency,
		m.invariantViolation,
		m.cascadeExhausted,
		m.orderbookDepth,
	)
	return m
}

func (m *Metrics) observeSubmit(symbol domain.Symbol, orderType domain.OrderType, tradeCount int, elapsed time.Duration, warned bool) {
	m.ordersTotal.WithLabelValues(string(symbol), orderType.String()).Inc()
	if tradeCount > 0 {
		m.tradesTotal.WithLabelValues(string(symbol)).Add(float64(tradeCount))
	}
	m.matchingLatency.WithLabelValues(string(symbol)).Observe(elapsed.Seconds())
	if warned {
		m.cascadeExhausted.WithLabelValues(string(symbol)).Inc()
	}
}

func (m *Metrics) observeInvariantViolation(symbol domain.Symbol) {
	m.invariantViolation.WithLabelValues(string(symbol)).Inc()
}

func (m *Metrics) observeDepth(symbol domain.Symbol, bidLevels, askLevels int) {
	m.orderbookDepth.WithLabelValues(string(symbol), "bid").Set(float64(bidLevels))
	m.orderbookDepth.WithLabelValues(string(symbol), "ask").Set(float64(askLevels))
}
