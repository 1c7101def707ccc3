package lotman

import (
	"context"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/internal/telemetry"
)

// UsageQuery selects which usage components GetUsage computes.
// Every requested component includes the lot's descendants.
type UsageQuery struct {
	Lot           string `json:"lot_name"`
	Total         bool   `json:"total_GB"`
	Dedicated     bool   `json:"dedicated_GB"`
	Opportunistic bool   `json:"opportunistic_GB"`
}

// Usage is a lot's usage broken into components, in GB (2^30 bytes).
// Components that were not requested are zero.
type Usage struct {
	TotalGB         float64 `json:"total_GB" yaml:"total_GB"`
	DedicatedGB     float64 `json:"dedicated_GB" yaml:"dedicated_GB"`
	OpportunisticGB float64 `json:"opportunistic_GB" yaml:"opportunistic_GB"`
}

// DirReport is one node of a directory usage report.
//
// Path is the directory's base name; top-level entries are resolved under
// "/". SizeGB includes the sizes of Subdirs when IncludesSubdirs is set.
type DirReport struct {
	Path            string      `json:"path" yaml:"path"`
	SizeGB          float64     `json:"size_GB" yaml:"size_GB"`
	IncludesSubdirs bool        `json:"includes_subdirs" yaml:"includes_subdirs"`
	Subdirs         []DirReport `json:"subdirs,omitempty" yaml:"subdirs,omitempty"`
}

// GetUsage computes the requested usage components of a lot.
//
//	total         = self + sum(total of each child)
//	dedicated     = min(total, dedicated allotment)
//	opportunistic = clamp(total - dedicated allotment, 0, opportunistic allotment)
func (m *Manager) GetUsage(ctx context.Context, q UsageQuery) (Usage, error) {
	if q.Lot == "" {
		return Usage{}, fmt.Errorf("%w: lot name is required", ErrInvalidQuery)
	}
	if !q.Total && !q.Dedicated && !q.Opportunistic {
		return Usage{}, fmt.Errorf("%w: no usage component requested", ErrInvalidQuery)
	}

	ix, err := m.index(ctx)
	if err != nil {
		return Usage{}, err
	}
	l, ok := ix.lots[q.Lot]
	if !ok {
		return Usage{}, ErrLotNotFound
	}

	total := ix.totalGB(q.Lot, make(map[string]float64))

	var u Usage
	if q.Total {
		u.TotalGB = total
	}
	if q.Dedicated {
		u.DedicatedGB = math.Min(total, l.MPA.DedicatedGB)
	}
	if q.Opportunistic {
		u.OpportunisticGB = math.Min(math.Max(total-l.MPA.DedicatedGB, 0), l.MPA.OpportunisticGB)
	}
	return u, nil
}

// totalGB sums self usage over the lot and its descendants. memo doubles as
// the cycle guard: a lot is entered with a provisional zero.
func (ix *lotIndex) totalGB(name string, memo map[string]float64) float64 {
	if v, ok := memo[name]; ok {
		return v
	}
	memo[name] = 0

	l, ok := ix.lots[name]
	if !ok {
		return 0
	}
	total := l.Usage.SelfGB
	for _, child := range ix.children[name] {
		total += ix.totalGB(child, memo)
	}
	memo[name] = total
	return total
}

// UpdateUsageByDir attributes a directory usage report to lots and stores
// the result as each lot's self usage.
//
// Each directory is owned by the lot with the longest matching path: an
// exact match, or an ancestor path flagged recursive. Directories no lot
// claims fall to the "default" lot when it exists and are dropped otherwise.
// A directory contributes its size minus its reported subdirectories, which
// are attributed on their own.
//
// In delta mode sizes are added to the stored self usage; otherwise every
// lot's self usage is replaced, and lots absent from the report drop to zero.
func (m *Manager) UpdateUsageByDir(ctx context.Context, reports []DirReport, deltaMode bool) (err error) {
	if err := validateReports(reports); err != nil {
		return err
	}

	ctx, span := telemetry.StartLotSpan(ctx, "update_usage", telemetry.DeltaMode(deltaMode))
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	ix, err := m.index(ctx)
	if err != nil {
		return err
	}

	acc := make(map[string]float64)
	var dropped []string
	ix.attribute(reports, "", !deltaMode, acc, &dropped)
	telemetry.SetAttributes(ctx, telemetry.LotCount(len(acc)), telemetry.Dropped(len(dropped)))

	if len(dropped) > 0 {
		logger.WarnCtx(ctx, "Usage report contains directories no lot governs",
			logger.KeyCount, len(dropped), logger.KeyPath, strings.Join(dropped, ", "))
	}

	now := m.now().UnixMilli()
	usage := make(map[string]LotUsage, len(acc))
	for name, gb := range acc {
		if deltaMode {
			gb = math.Max(gb+ix.lots[name].Usage.SelfGB, 0)
		}
		usage[name] = LotUsage{SelfGB: gb, UpdatedAt: now}
	}

	if err := m.store.ApplyUsage(ctx, usage, !deltaMode); err != nil {
		return fmt.Errorf("failed to store lot usage: %w", err)
	}

	if m.metrics != nil {
		m.metrics.ObserveUsageUpdate(deltaMode, len(usage), len(dropped), time.Since(start))
	}

	logger.DebugCtx(ctx, "Lot usage updated", logger.KeyCount, len(usage), "delta", deltaMode)
	return nil
}

func (ix *lotIndex) attribute(reports []DirReport, parent string, clamp bool, acc map[string]float64, dropped *[]string) {
	for _, r := range reports {
		dir := joinReportPath(parent, r.Path)

		self := r.SizeGB
		if r.IncludesSubdirs {
			for _, sub := range r.Subdirs {
				self -= sub.SizeGB
			}
		}
		if clamp && self < 0 {
			self = 0
		}

		if owner, ok := ix.ownerOf(dir); ok {
			acc[owner] += self
		} else {
			*dropped = append(*dropped, dir)
		}

		ix.attribute(r.Subdirs, dir, clamp, acc, dropped)
	}
}

// ownerOf returns the lot governing dir. Ties on path length go to the lot
// whose name sorts first.
func (ix *lotIndex) ownerOf(dir string) (string, bool) {
	owner, bestLen := "", -1
	for _, name := range ix.names {
		for _, p := range ix.lots[name].Paths {
			if dir != p.Path && !(p.Recursive && isUnder(dir, p.Path)) {
				continue
			}
			if len(p.Path) > bestLen {
				owner, bestLen = name, len(p.Path)
			}
		}
	}
	if bestLen >= 0 {
		return owner, true
	}
	if _, ok := ix.lots[DefaultLot]; ok {
		return DefaultLot, true
	}
	return "", false
}

// isUnder reports whether dir lies strictly below base.
func isUnder(dir, base string) bool {
	if base == "/" {
		return dir != "/"
	}
	return strings.HasPrefix(dir, base+"/")
}

func joinReportPath(parent, name string) string {
	if parent == "" {
		return path.Clean("/" + name)
	}
	return path.Join(parent, name)
}

func validateReports(reports []DirReport) error {
	for _, r := range reports {
		if r.Path == "" || r.Path == "." || r.Path == ".." {
			return fmt.Errorf("%w: report entry has invalid path %q", ErrInvalidReport, r.Path)
		}
		if math.IsNaN(r.SizeGB) || math.IsInf(r.SizeGB, 0) {
			return fmt.Errorf("%w: report entry %q has invalid size", ErrInvalidReport, r.Path)
		}
		if len(r.Subdirs) > 0 && !r.IncludesSubdirs {
			return fmt.Errorf("%w: report entry %q lists subdirs without includes_subdirs", ErrInvalidReport, r.Path)
		}
		if err := validateReports(r.Subdirs); err != nil {
			return err
		}
	}
	return nil
}
