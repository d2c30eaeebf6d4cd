package service

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// Metrics holds the lookup collectors. A nil *Metrics records nothing.
type Metrics struct {
	lookups  *prometheus.CounterVec
	duration prometheus.Histogram
	breaker  prometheus.Gauge
}

// NewMetrics creates the lookup collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barcode",
			Name:      "lookups_total",
			Help:      "Barcode checks by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "barcode",
			Name:      "lookup_duration_seconds",
			Help:      "Time spent answering a barcode check.",
			Buckets:   prometheus.DefBuckets,
		}),
		breaker: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "barcode",
			Name:      "store_breaker_state",
			Help:      "Store circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
	}
	reg.MustRegister(m.lookups, m.duration, m.breaker)
	return m
}

func (m *Metrics) observe(res Result, d time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(strings.ToLower(res.Status.String())).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) breakerState(state gobreaker.State) {
	if m == nil {
		return
	}
	m.breaker.Set(float64(state))
}
