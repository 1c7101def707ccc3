// Package prometheus provides the Prometheus implementations of the purge
// and lot metrics interfaces. Importing it (usually for side effects)
// registers the constructors with pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/lotpurge/pkg/metrics"
	"github.com/marmos91/lotpurge/pkg/purge"
)

func init() {
	metrics.RegisterPurgeMetricsConstructor(NewPurgeMetrics)
	metrics.RegisterLotMetricsConstructor(NewLotMetrics)
}

// purgeMetrics is the Prometheus implementation of purge.Metrics.
type purgeMetrics struct {
	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	totalUsage     prometheus.Gauge
	bytesToRecover prometheus.Gauge
	unallocated    prometheus.Gauge
	allocated      *prometheus.CounterVec
	lastAllocated  *prometheus.GaugeVec
	plannedDirs    prometheus.Gauge
}

// NewPurgeMetrics creates a Prometheus-backed purge.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewPurgeMetrics() purge.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &purgeMetrics{
		cycles: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lotpurge_cycles_total",
				Help: "Total number of purge cycles by outcome",
			},
			[]string{"status"}, // "planned", "below_watermark", "undetermined"
		),
		cycleDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "lotpurge_cycle_duration_milliseconds",
				Help: "Duration of purge cycles in milliseconds",
				Buckets: []float64{
					1,     // 1ms - tiny snapshots
					10,    // 10ms
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s - large lot hierarchies
					30000, // 30s
				},
			},
		),
		totalUsage: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "lotpurge_total_usage_bytes",
				Help: "Usage summed over root lots at the last threshold decision",
			},
		),
		bytesToRecover: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "lotpurge_bytes_to_recover",
				Help: "Bytes the last cycle set out to reclaim (0 below the high watermark)",
			},
		),
		unallocated: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "lotpurge_unallocated_bytes",
				Help: "Budget left after every policy pass of the last cycle",
			},
		),
		allocated: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lotpurge_allocated_bytes_total",
				Help: "Total bytes committed for reclamation by policy",
			},
			[]string{"policy"},
		),
		lastAllocated: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lotpurge_last_allocated_bytes",
				Help: "Bytes committed by each policy in the last planned cycle",
			},
			[]string{"policy"},
		),
		plannedDirs: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "lotpurge_planned_directories",
				Help: "Number of directories in the last plan",
			},
		),
	}
}

func (m *purgeMetrics) ObserveCycle(status purge.Status, duration time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(string(status)).Inc()
	m.cycleDuration.Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *purgeMetrics) RecordUsage(totalBytes, bytesToRecover, unallocated int64) {
	if m == nil {
		return
	}
	m.totalUsage.Set(float64(totalBytes))
	m.bytesToRecover.Set(float64(bytesToRecover))
	m.unallocated.Set(float64(unallocated))
}

func (m *purgeMetrics) ObserveAllocation(policy purge.Policy, bytes int64) {
	if m == nil {
		return
	}
	m.allocated.WithLabelValues(policy.String()).Add(float64(bytes))
	m.lastAllocated.WithLabelValues(policy.String()).Set(float64(bytes))
}

func (m *purgeMetrics) RecordPlannedDirs(n int) {
	if m == nil {
		return
	}
	m.plannedDirs.Set(float64(n))
}
