package metrics

import (
	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/purge"
)

// newPrometheusPurgeMetrics and newPrometheusLotMetrics are set by
// pkg/metrics/prometheus during package initialization. The indirection
// keeps this package free of an import cycle with its implementation.
var (
	newPrometheusPurgeMetrics func() purge.Metrics
	newPrometheusLotMetrics   func() lotman.Metrics
)

// RegisterPurgeMetricsConstructor registers the Prometheus purge metrics constructor.
func RegisterPurgeMetricsConstructor(constructor func() purge.Metrics) {
	newPrometheusPurgeMetrics = constructor
}

// RegisterLotMetricsConstructor registers the Prometheus lot metrics constructor.
func RegisterLotMetricsConstructor(constructor func() lotman.Metrics) {
	newPrometheusLotMetrics = constructor
}

// NewPurgeMetrics returns the planner metrics sink, or nil when metrics are
// disabled or no implementation is linked in.
func NewPurgeMetrics() purge.Metrics {
	if !IsEnabled() || newPrometheusPurgeMetrics == nil {
		return nil
	}
	return newPrometheusPurgeMetrics()
}

// NewLotMetrics returns the lot authority metrics sink, or nil when metrics
// are disabled or no implementation is linked in.
func NewLotMetrics() lotman.Metrics {
	if !IsEnabled() || newPrometheusLotMetrics == nil {
		return nil
	}
	return newPrometheusLotMetrics()
}
