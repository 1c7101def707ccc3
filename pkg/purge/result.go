package purge

import (
	"path"
	"sort"
	"strings"
	"time"
)

// Status is the outcome of a cycle.
type Status string

const (
	// StatusPlanned means usage reached the high watermark and a plan was built.
	StatusPlanned Status = "planned"
	// StatusBelowWatermark means usage was under the high watermark.
	StatusBelowWatermark Status = "below_watermark"
	// StatusUndetermined means the authority could not be consulted.
	StatusUndetermined Status = "undetermined"
)

// DirPurge is one entry of a plan.
type DirPurge struct {
	Path         string `json:"path" yaml:"path"`
	BytesToPurge int64  `json:"bytes_to_purge" yaml:"bytes_to_purge"`
}

// Result is the outcome of one cycle.
type Result struct {
	CycleID        string       `json:"cycle_id" yaml:"cycle_id"`
	Status         Status       `json:"status" yaml:"status"`
	TotalUsage     int64        `json:"total_usage" yaml:"total_usage"`
	HighWatermark  int64        `json:"high_watermark" yaml:"high_watermark"`
	LowWatermark   int64        `json:"low_watermark" yaml:"low_watermark"`
	BytesToRecover int64        `json:"bytes_to_recover" yaml:"bytes_to_recover"`
	Unallocated    int64        `json:"unallocated" yaml:"unallocated"`
	Passes         []PassResult `json:"passes,omitempty" yaml:"passes,omitempty"`
	Dirs           []DirPurge   `json:"dirs" yaml:"dirs"`
	StartedAt      time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time    `json:"finished_at" yaml:"finished_at"`
	Error          string       `json:"error,omitempty" yaml:"error,omitempty"`

	ledger Ledger
}

// Candidate returns the ledger entry for a directory.
func (r *Result) Candidate(dir string) (Candidate, bool) {
	c, ok := r.ledger[path.Clean(dir)]
	if !ok {
		return Candidate{}, false
	}
	return *c, true
}

// Planned returns the bytes the plan commits across all directories.
func (r *Result) Planned() int64 {
	var sum int64
	for _, d := range r.Dirs {
		sum += d.BytesToPurge
	}
	return sum
}

// emit lists the candidates with bytes committed, sorted by path.
func (l Ledger) emit(suffix string) []DirPurge {
	dirs := make([]DirPurge, 0, len(l))
	for p, c := range l {
		if c.ToPurge <= 0 {
			continue
		}
		dirs = append(dirs, DirPurge{Path: withSuffix(p, suffix), BytesToPurge: c.ToPurge})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })
	return dirs
}

func withSuffix(p, suffix string) string {
	if suffix == "" || strings.HasSuffix(p, suffix) {
		return p
	}
	return p + suffix
}

// joinLots renders a lot list for log lines.
func joinLots(lots []string) string {
	return strings.Join(lots, ", ")
}
