package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/metrics"
	"github.com/marmos91/lotpurge/pkg/purge"
)

// gathered returns the value of a counter or gauge series, matching the
// given label value when one is passed.
func gathered(t *testing.T, name string, labelValue ...string) float64 {
	t.Helper()

	mfs, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if len(labelValue) > 0 {
				match := false
				for _, lp := range m.GetLabel() {
					if lp.GetValue() == labelValue[0] {
						match = true
					}
				}
				if !match {
					continue
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labelValue)
	return 0
}

func TestDisabledReturnsNil(t *testing.T) {
	metrics.Reset()
	assert.Nil(t, NewPurgeMetrics())
	assert.Nil(t, NewLotMetrics())
	assert.Nil(t, metrics.NewPurgeMetrics())
	assert.Nil(t, metrics.NewLotMetrics())
}

func TestPurgeMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := metrics.NewPurgeMetrics()
	require.NotNil(t, m)

	m.ObserveCycle(purge.StatusPlanned, 3*time.Millisecond)
	m.ObserveCycle(purge.StatusPlanned, time.Millisecond)
	m.ObserveCycle(purge.StatusUndetermined, time.Millisecond)
	m.RecordUsage(150, 90, 0)
	m.ObserveAllocation(purge.PolicyPastDel, 40)
	m.ObserveAllocation(purge.PolicyPastDel, 50)
	m.RecordPlannedDirs(2)

	assert.Equal(t, 2.0, gathered(t, "lotpurge_cycles_total", "planned"))
	assert.Equal(t, 1.0, gathered(t, "lotpurge_cycles_total", "undetermined"))
	assert.Equal(t, 3.0, gathered(t, "lotpurge_cycle_duration_milliseconds"))
	assert.Equal(t, 150.0, gathered(t, "lotpurge_total_usage_bytes"))
	assert.Equal(t, 90.0, gathered(t, "lotpurge_bytes_to_recover"))
	assert.Equal(t, 90.0, gathered(t, "lotpurge_allocated_bytes_total", "LotsPastDel"))
	assert.Equal(t, 50.0, gathered(t, "lotpurge_last_allocated_bytes", "LotsPastDel"))
	assert.Equal(t, 2.0, gathered(t, "lotpurge_planned_directories"))
}

func TestLotMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := metrics.NewLotMetrics()
	require.NotNil(t, m)

	m.ObserveUsageUpdate(false, 4, 2, time.Millisecond)
	m.ObserveUsageUpdate(true, 1, 1, time.Millisecond)
	m.ObserveListing(lotman.PastDedicated, 3)

	assert.Equal(t, 1.0, gathered(t, "lotpurge_lot_usage_updates_total", "false"))
	assert.Equal(t, 1.0, gathered(t, "lotpurge_lot_usage_updates_total", "true"))
	assert.Equal(t, 1.0, gathered(t, "lotpurge_lot_usage_attributed_lots"))
	assert.Equal(t, 3.0, gathered(t, "lotpurge_lot_usage_dropped_directories_total"))
	assert.Equal(t, 3.0, gathered(t, "lotpurge_lots_past", "dedicated"))
}

func TestNilReceiversAreSafe(t *testing.T) {
	var pm *purgeMetrics
	var lm *lotMetrics
	assert.NotPanics(t, func() {
		pm.ObserveCycle(purge.StatusPlanned, time.Second)
		pm.RecordUsage(1, 1, 1)
		pm.ObserveAllocation(purge.PolicyPastDed, 1)
		pm.RecordPlannedDirs(1)
		lm.ObserveUsageUpdate(true, 1, 1, time.Second)
		lm.ObserveListing(lotman.PastDeletion, 1)
	})
}
