package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	trades   *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signer",
			Name:      "trades_total",
			Help:      "Trade requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "signer",
			Name:      "trade_duration_seconds",
			Help:      "Time spent executing trade requests.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
	}
	reg.MustRegister(m.trades, m.duration)
	return m
}

func (m *metrics) observe(outcome string, started time.Time) {
	m.trades.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}
