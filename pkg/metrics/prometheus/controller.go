package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abohomol/kaa/pkg/metrics"
)

// controllerMetrics is the Prometheus implementation of
// metrics.ControllerMetrics.
type controllerMetrics struct {
	decisions    *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
	inFlightTime *prometheus.HistogramVec
	pendingGauge prometheus.Gauge
}

// NewControllerMetrics creates a Prometheus-backed
// metrics.ControllerMetrics.
//
// Returns nil if metrics are not enabled (metrics.InitRegistry not
// called).
func NewControllerMetrics() metrics.ControllerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &controllerMetrics{
		decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "uploadcontroller_decisions_total",
			Help: "Total number of Tick decisions by verdict.",
		}, []string{"decision"}),
		deliveries: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "uploadcontroller_deliveries_total",
			Help: "Total number of resolved dispatches by outcome.",
		}, []string{"outcome"}),
		inFlightTime: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uploadcontroller_in_flight_seconds",
			Help:    "Time a bucket spent dispatched before resolving.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		pendingGauge: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "uploadcontroller_pending_buckets",
			Help: "Current number of dispatched buckets awaiting resolution.",
		}),
	}
}

func (m *controllerMetrics) RecordDecision(decision string) {
	m.decisions.WithLabelValues(decision).Inc()
}

func (m *controllerMetrics) RecordDelivery(outcome string, inFlight time.Duration) {
	m.deliveries.WithLabelValues(outcome).Inc()
	m.inFlightTime.WithLabelValues(outcome).Observe(inFlight.Seconds())
}

func (m *controllerMetrics) SetPendingCount(n int) {
	m.pendingGauge.Set(float64(n))
}
