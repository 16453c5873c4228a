// Package metrics exposes Prometheus metrics for the verification engine,
// the inventory ledger, and the HTTP layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	OrdersProcessed      *prometheus.CounterVec
	OrdersDispensed      *prometheus.CounterVec
	VerificationDuration prometheus.Histogram
	ReordersTriggered    prometheus.Counter

	queueDepth *prometheus.GaugeVec
}

func New(serviceName string) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		OrdersProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "orders",
			Name:      "processed_total",
			Help:      "Orders processed by approval outcome.",
		}, []string{"outcome"}),

		OrdersDispensed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "orders",
			Name:      "dispensed_total",
			Help:      "Dispense attempts by result.",
		}, []string{"result"}),

		VerificationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "orders",
			Name:      "verification_duration_seconds",
			Help:      "Full verification pass latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),

		ReordersTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "inventory",
			Name:      "reorders_triggered_total",
			Help:      "Reorder signals emitted when stock hit the reorder level.",
		}),

		queueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "queues",
			Name:      "depth",
			Help:      "Current number of orders waiting per work queue.",
		}, []string{"queue"}),
	}
}

// OrderProcessed counts one verification decision. Nil-safe.
func (m *Metrics) OrderProcessed(approved bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	m.OrdersProcessed.WithLabelValues(outcome).Inc()
}

// OrderDispensed counts one fulfillment attempt. Nil-safe.
func (m *Metrics) OrderDispensed(success bool) {
	if m == nil {
		return
	}
	result := "failed"
	if success {
		result = "succeeded"
	}
	m.OrdersDispensed.WithLabelValues(result).Inc()
}

// ObserveVerification records one verification pass duration. Nil-safe.
func (m *Metrics) ObserveVerification(d time.Duration) {
	if m == nil {
		return
	}
	m.VerificationDuration.Observe(d.Seconds())
}

// ReorderTriggered counts one procurement signal. Nil-safe.
func (m *Metrics) ReorderTriggered() {
	if m == nil {
		return
	}
	m.ReordersTriggered.Inc()
}

// SetQueueDepths refreshes the per-queue depth gauges.
func (m *Metrics) SetQueueDepths(depths map[string]int) {
	if m == nil {
		return
	}
	for queue, depth := range depths {
		m.queueDepth.WithLabelValues(queue).Set(float64(depth))
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
