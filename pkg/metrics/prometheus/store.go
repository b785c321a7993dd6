// Package prometheus provides Prometheus-backed implementations of the
// pkg/metrics interfaces, built with promauto.With(reg) the way
// pkg/metrics/prometheus does for the cache and NFS adapters.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abohomol/kaa/pkg/metrics"
)

// storeMetrics is the Prometheus implementation of metrics.StoreMetrics.
type storeMetrics struct {
	appends         prometheus.Counter
	rotations       prometheus.Counter
	appendBytes     prometheus.Histogram
	dispenses       prometheus.Counter
	dispenseRecords prometheus.Histogram
	commits         prometheus.Counter
	rollbacks       prometheus.Counter
	recordsCount    prometheus.Gauge
	consumedVolume  prometheus.Gauge
}

// NewStoreMetrics creates a Prometheus-backed metrics.StoreMetrics.
//
// Returns nil if metrics are not enabled (metrics.InitRegistry not
// called), so callers can pass the result straight to a Store's
// SetMetrics without an extra nil check.
func NewStoreMetrics() metrics.StoreMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &storeMetrics{
		appends: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "logstore_appends_total",
			Help: "Total number of records appended to the store.",
		}),
		rotations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "logstore_rotations_total",
			Help: "Total number of bucket rotations triggered by AddRecord.",
		}),
		appendBytes: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "logstore_append_bytes",
			Help:    "Distribution of appended record sizes in bytes.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
		dispenses: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "logstore_dispenses_total",
			Help: "Total number of buckets dispensed via NextBucket.",
		}),
		dispenseRecords: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "logstore_dispense_records",
			Help:    "Distribution of record counts per dispensed bucket.",
			Buckets: prometheus.LinearBuckets(1, 8, 8),
		}),
		commits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "logstore_commits_total",
			Help: "Total number of buckets committed via RemoveBucket.",
		}),
		rollbacks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "logstore_rollbacks_total",
			Help: "Total number of buckets rolled back via RollbackBucket.",
		}),
		recordsCount: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "logstore_unmarked_records",
			Help: "Current unmarked_records counter (records in FREE buckets).",
		}),
		consumedVolume: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "logstore_consumed_volume_bytes",
			Help: "Current consumed_volume counter (bytes in FREE buckets).",
		}),
	}
}

func (m *storeMetrics) RecordAppend(sizeBytes int, rotated bool) {
	m.appends.Inc()
	m.appendBytes.Observe(float64(sizeBytes))
	if rotated {
		m.rotations.Inc()
	}
}

func (m *storeMetrics) RecordDispense(recordsCount int) {
	m.dispenses.Inc()
	m.dispenseRecords.Observe(float64(recordsCount))
}

func (m *storeMetrics) RecordCommit() { m.commits.Inc() }

func (m *storeMetrics) RecordRollback() { m.rollbacks.Inc() }

func (m *storeMetrics) SetStatus(recordsCount, consumedVolumeBytes uint64) {
	m.recordsCount.Set(float64(recordsCount))
	m.consumedVolume.Set(float64(consumedVolumeBytes))
}
