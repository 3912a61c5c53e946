package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of the server.
type Metrics struct {
	Derivations     *prometheus.CounterVec
	SkippedTrades   *prometheus.CounterVec
	OpenPositions   prometheus.Gauge
	MissingQuotes   prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them in reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Derivations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "captrack",
				Name:      "derivations_total",
				Help:      "Number of position derivations by endpoint.",
			},
			[]string{"endpoint"},
		),
		SkippedTrades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "captrack",
				Name:      "skipped_trades_total",
				Help:      "Number of trades skipped by the position engine, by reason.",
			},
			[]string{"reason"},
		),
		OpenPositions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "captrack",
				Name:      "open_positions",
				Help:      "Number of open positions at the last derivation.",
			},
		),
		MissingQuotes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "captrack",
				Name:      "missing_quotes_total",
				Help:      "Number of positions valued without a quote.",
			},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "captrack",
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "status"},
		),
	}
	reg.MustRegister(m.Derivations, m.SkippedTrades, m.OpenPositions, m.MissingQuotes, m.RequestDuration)
	return m
}
