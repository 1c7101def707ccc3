// Package snapshot models the directory-usage snapshot a storage cache
// hands to the purge planner once per cycle.
//
// A snapshot is a flat, parent-indexed vector of directory records. Index 0
// is conventionally a synthetic root with an empty name; it anchors the tree
// but never contributes a path segment.
package snapshot

import (
	"fmt"
	"path"
	"strings"
	"sync"
)

// BlockSize is the size in bytes of one accounted block.
const BlockSize = 512

// NoParent marks a record without a parent (a root record).
const NoParent = -1

// DirUsage is the usage accounted to one directory, subdirectories included.
type DirUsage struct {
	StBlocks int64 `json:"st_blocks" yaml:"st_blocks"`
	NFiles   int64 `json:"nfiles" yaml:"nfiles"`
}

// Bytes returns the usage in bytes.
func (u DirUsage) Bytes() int64 {
	return u.StBlocks * BlockSize
}

// DirEntry is one directory record.
//
// DaughtersBegin/DaughtersEnd describe the half-open index range holding the
// record's children when the producer lays children out contiguously. The
// planner itself navigates by Parent.
type DirEntry struct {
	Name           string   `json:"name" yaml:"name"`
	Parent         int      `json:"parent" yaml:"parent"`
	DaughtersBegin int      `json:"daughters_begin" yaml:"daughters_begin"`
	DaughtersEnd   int      `json:"daughters_end" yaml:"daughters_end"`
	Usage          DirUsage `json:"usage" yaml:"usage"`
}

// Snapshot is a read-only directory usage vector.
//
// A Snapshot must not be modified once queried: the path index is built on
// first lookup and never invalidated.
type Snapshot struct {
	Dirs []DirEntry `json:"dirs" yaml:"dirs"`

	indexOnce sync.Once
	index     map[string]int
	children  [][]int
}

// New returns a snapshot holding only the synthetic root.
func New() *Snapshot {
	return &Snapshot{
		Dirs: []DirEntry{{Name: "", Parent: NoParent}},
	}
}

// AddDir appends a directory under parent and returns its index.
// The parent's daughter range is widened to include the new record.
// The path index is built on first lookup, so add every record before that.
func (s *Snapshot) AddDir(parent int, name string, stBlocks int64) int {
	idx := len(s.Dirs)
	s.Dirs = append(s.Dirs, DirEntry{
		Name:           name,
		Parent:         parent,
		DaughtersBegin: idx + 1,
		DaughtersEnd:   idx + 1,
		Usage:          DirUsage{StBlocks: stBlocks},
	})

	if parent >= 0 && parent < idx {
		p := &s.Dirs[parent]
		if p.DaughtersBegin >= p.DaughtersEnd {
			p.DaughtersBegin = idx
		}
		p.DaughtersEnd = idx + 1
	}
	return idx
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	return len(s.Dirs)
}

// IsSyntheticRoot reports whether record i is a root without a name.
func (s *Snapshot) IsSyntheticRoot(i int) bool {
	d := s.Dirs[i]
	return d.Parent == NoParent && d.Name == ""
}

// Path returns the absolute path of record i. Unnamed root records never
// contribute a segment, so the synthetic root itself maps to "/".
func (s *Snapshot) Path(i int) string {
	var segments []string
	for cur := i; cur != NoParent; cur = s.Dirs[cur].Parent {
		if s.Dirs[cur].Name != "" {
			segments = append(segments, s.Dirs[cur].Name)
		}
	}

	var b strings.Builder
	for j := len(segments) - 1; j >= 0; j-- {
		b.WriteByte('/')
		b.WriteString(segments[j])
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Children returns the indices of the direct children of record i in
// snapshot order.
func (s *Snapshot) Children(i int) []int {
	s.buildIndex()
	return s.children[i]
}

// Roots returns the indices of all records without a parent.
func (s *Snapshot) Roots() []int {
	var roots []int
	for i, d := range s.Dirs {
		if d.Parent == NoParent {
			roots = append(roots, i)
		}
	}
	return roots
}

// FindDirUsage resolves an absolute path to its usage record. Trailing and
// duplicate separators are tolerated.
func (s *Snapshot) FindDirUsage(p string) (DirUsage, bool) {
	s.buildIndex()
	i, ok := s.index[cleanPath(p)]
	if !ok {
		return DirUsage{}, false
	}
	return s.Dirs[i].Usage, true
}

// Validate checks the structural invariants of the vector: parents are in
// range and precede their children, and daughter ranges lie inside the vector.
func (s *Snapshot) Validate() error {
	if len(s.Dirs) == 0 {
		return fmt.Errorf("%w: no directory records", ErrInvalidSnapshot)
	}

	n := len(s.Dirs)
	for i, d := range s.Dirs {
		if d.Parent != NoParent && (d.Parent < 0 || d.Parent >= i) {
			return fmt.Errorf("%w: record %d (%q) has parent %d", ErrInvalidSnapshot, i, d.Name, d.Parent)
		}
		if d.Parent != NoParent && d.Name == "" {
			return fmt.Errorf("%w: record %d has an empty name", ErrInvalidSnapshot, i)
		}
		if strings.Contains(d.Name, "/") {
			return fmt.Errorf("%w: record %d name %q contains a separator", ErrInvalidSnapshot, i, d.Name)
		}
		if d.DaughtersBegin < 0 || d.DaughtersEnd < d.DaughtersBegin || d.DaughtersEnd > n {
			return fmt.Errorf("%w: record %d daughter range [%d,%d) out of bounds", ErrInvalidSnapshot, i, d.DaughtersBegin, d.DaughtersEnd)
		}
		if d.Usage.StBlocks < 0 {
			return fmt.Errorf("%w: record %d has negative usage", ErrInvalidSnapshot, i)
		}
	}
	return nil
}

// TotalBytes returns the usage of the whole snapshot. A synthetic root
// carries no usage of its own, so its top-level children are summed
// instead; named roots count with their own usage.
func (s *Snapshot) TotalBytes() int64 {
	var total int64
	for _, r := range s.Roots() {
		if !s.IsSyntheticRoot(r) {
			total += s.Dirs[r].Usage.Bytes()
			continue
		}
		for _, c := range s.Children(r) {
			total += s.Dirs[c].Usage.Bytes()
		}
	}
	return total
}

func (s *Snapshot) buildIndex() {
	s.indexOnce.Do(func() {
		s.index = make(map[string]int, len(s.Dirs))
		s.children = make([][]int, len(s.Dirs))
		for i, d := range s.Dirs {
			if d.Parent >= 0 && d.Parent < len(s.Dirs) {
				s.children[d.Parent] = append(s.children[d.Parent], i)
			}
			p := s.Path(i)
			// The first record wins when two records resolve to the same path.
			if _, dup := s.index[p]; !dup {
				s.index[p] = i
			}
		}
	})
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}
