package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ShareMetrics collects Prometheus metrics for the share collection:
// operation counts, busy rejections and store write latency.
//
// A nil *ShareMetrics is a valid no-op receiver, so callers never need to
// branch on whether metrics are enabled.
type ShareMetrics struct {
	operationsTotal *prometheus.CounterVec
	busyTotal       prometheus.Counter
	storeDuration   *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
}

// NewShareMetrics creates a Prometheus-backed ShareMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// makes every method a no-op.
func NewShareMetrics() *ShareMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &ShareMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoshare_operations_total",
				Help: "Total number of accepted share mutations by operation",
			},
			[]string{"operation"},
		),
		busyTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoshare_busy_rejections_total",
				Help: "Total number of mutations rejected because one was already in flight",
			},
		),
		storeDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittoshare_store_duration_seconds",
				Help: "Duration of share store operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
				},
			},
			[]string{"operation"},
		),
		storeErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoshare_store_errors_total",
				Help: "Total number of share store failures by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordCreate counts an accepted share creation.
func (m *ShareMetrics) RecordCreate() {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues("create").Inc()
}

// RecordUpdate counts an accepted share update.
func (m *ShareMetrics) RecordUpdate() {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues("update").Inc()
}

// RecordDelete counts an accepted share deletion.
func (m *ShareMetrics) RecordDelete() {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues("delete").Inc()
}

// RecordBusy counts a mutation rejected with Busy.
func (m *ShareMetrics) RecordBusy() {
	if m == nil {
		return
	}
	m.busyTotal.Inc()
}

// ObserveStore records the latency and outcome of a store operation
// ("store" or "archive").
func (m *ShareMetrics) ObserveStore(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.storeErrors.WithLabelValues(operation).Inc()
	}
}
