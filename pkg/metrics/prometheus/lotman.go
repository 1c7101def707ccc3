package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/metrics"
)

// lotMetrics is the Prometheus implementation of lotman.Metrics.
type lotMetrics struct {
	usageUpdates        *prometheus.CounterVec
	usageUpdateDuration prometheus.Histogram
	attributedLots      prometheus.Gauge
	droppedDirs         prometheus.Counter
	listingMatches      *prometheus.GaugeVec
}

// NewLotMetrics creates a Prometheus-backed lotman.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewLotMetrics() lotman.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &lotMetrics{
		usageUpdates: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lotpurge_lot_usage_updates_total",
				Help: "Total number of lot usage updates by mode",
			},
			[]string{"delta"}, // "true", "false"
		),
		usageUpdateDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lotpurge_lot_usage_update_duration_milliseconds",
				Help:    "Duration of lot usage updates in milliseconds",
				Buckets: []float64{0.5, 1, 5, 10, 50, 100, 500, 1000},
			},
		),
		attributedLots: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "lotpurge_lot_usage_attributed_lots",
				Help: "Number of lots that received usage in the last update",
			},
		),
		droppedDirs: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "lotpurge_lot_usage_dropped_directories_total",
				Help: "Total number of reported directories no lot governs",
			},
		),
		listingMatches: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lotpurge_lots_past",
				Help: "Number of lots returned by the last listing of each kind",
			},
			[]string{"listing"}, // "deletion", "expiration", "opportunistic", "dedicated"
		),
	}
}

func (m *lotMetrics) ObserveUsageUpdate(delta bool, lots, dropped int, duration time.Duration) {
	if m == nil {
		return
	}
	m.usageUpdates.WithLabelValues(strconv.FormatBool(delta)).Inc()
	m.usageUpdateDuration.Observe(float64(duration.Microseconds()) / 1000.0)
	m.attributedLots.Set(float64(lots))
	m.droppedDirs.Add(float64(dropped))
}

func (m *lotMetrics) ObserveListing(past lotman.Past, matched int) {
	if m == nil {
		return
	}
	m.listingMatches.WithLabelValues(past.String()).Set(float64(matched))
}
