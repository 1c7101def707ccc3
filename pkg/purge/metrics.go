package purge

import "time"

// Metrics observes planning cycles. Pass nil to NewPlanner to disable.
//
// The Prometheus implementation lives in pkg/metrics/prometheus and is
// obtained through metrics.NewPurgeMetrics.
type Metrics interface {
	// ObserveCycle records a finished cycle with its outcome.
	ObserveCycle(status Status, duration time.Duration)

	// RecordUsage records the figures of the last cycle that reached the
	// threshold decision.
	RecordUsage(totalBytes, bytesToRecover, unallocated int64)

	// ObserveAllocation records the bytes one policy pass committed.
	ObserveAllocation(policy Policy, bytes int64)

	// RecordPlannedDirs records how many directories the last plan lists.
	RecordPlannedDirs(n int)
}
