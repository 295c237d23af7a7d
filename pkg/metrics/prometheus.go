package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signals            *prometheus.CounterVec
	ordersSubmitted    *prometheus.CounterVec
	ordersRejected     *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	cycleDuration      *prometheus.HistogramVec
	equity             prometheus.Gauge
	monitoredPositions prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedesk_signals_total",
				Help: "Total signals generated by strategies",
			},
			[]string{"strategy_type", "symbol", "action"},
		),
		ordersSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedesk_orders_submitted_total",
				Help: "Total orders submitted to the brokerage",
			},
			[]string{"side"},
		),
		ordersRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedesk_orders_rejected_total",
				Help: "Total orders rejected by the brokerage",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cycleDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradedesk_strategy_cycle_duration_seconds",
				Help:    "Duration of strategy evaluation cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy_id"},
		),
		equity: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradedesk_portfolio_equity",
				Help: "Last fetched portfolio equity",
			},
		),
		monitoredPositions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradedesk_monitored_positions",
				Help: "Number of positions watched for stop/take exits",
			},
		),
	}
}

// RecordSignal records a generated trade signal.
func (r *Recorder) RecordSignal(strategyType, symbol, action string) {
	r.signals.WithLabelValues(strategyType, symbol, action).Inc()
}

// RecordOrderSubmitted records a submitted order.
func (r *Recorder) RecordOrderSubmitted(side string) {
	r.ordersSubmitted.WithLabelValues(side).Inc()
}

// RecordOrderRejected records a rejected order.
func (r *Recorder) RecordOrderRejected(reason string) {
	r.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCycleDuration records one strategy cycle's wall time.
func (r *Recorder) RecordCycleDuration(strategyID string, seconds float64) {
	r.cycleDuration.WithLabelValues(strategyID).Observe(seconds)
}

// RecordEquity records the current portfolio equity.
func (r *Recorder) RecordEquity(value float64) {
	r.equity.Set(value)
}

// RecordMonitoredPositions records the monitor registry size.
func (r *Recorder) RecordMonitoredPositions(count int) {
	r.monitoredPositions.Set(float64(count))
}
