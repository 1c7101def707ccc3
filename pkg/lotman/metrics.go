package lotman

import "time"

// Metrics observes authority activity. Pass nil (or omit WithMetrics) to
// disable.
type Metrics interface {
	// ObserveUsageUpdate records one UpdateUsageByDir call.
	ObserveUsageUpdate(delta bool, lots, dropped int, duration time.Duration)

	// ObserveListing records how many lots a "lots past X" listing returned.
	ObserveListing(past Past, matched int)
}

// WithMetrics attaches a metrics sink to the Manager.
func WithMetrics(m Metrics) Option {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}
