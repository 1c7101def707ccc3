package purge

import "path"

// Candidate records what a cycle has committed from one directory.
//
// Usage is the directory's size when first touched. ToPurge + Remaining
// always equals Usage and Remaining never goes negative.
type Candidate struct {
	Usage     int64 `json:"usage"`
	ToPurge   int64 `json:"to_purge"`
	Remaining int64 `json:"remaining"`
}

// Ledger maps cleaned directory paths to candidates. It is shared by every pass of
// one cycle and discarded afterwards.
type Ledger map[string]*Candidate

// take commits up to limit bytes from dir and returns the amount taken.
// The candidate is created on first touch with bytesInDir remaining; later
// calls draw from what is left regardless of bytesInDir.
func (l Ledger) take(dir string, bytesInDir, limit int64) int64 {
	if limit <= 0 {
		return 0
	}

	dir = path.Clean(dir)
	c, ok := l[dir]
	if !ok {
		avail := max(bytesInDir, 0)
		c = &Candidate{Usage: avail, Remaining: avail}
		l[dir] = c
	}
	if c.Remaining <= 0 {
		return 0
	}

	n := min(c.Remaining, limit)
	c.ToPurge += n
	c.Remaining -= n
	return n
}

// Committed returns the sum of ToPurge over every candidate.
func (l Ledger) Committed() int64 {
	var sum int64
	for _, c := range l {
		sum += c.ToPurge
	}
	return sum
}
