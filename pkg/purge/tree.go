package purge

import (
	"path"

	"github.com/marmos91/lotpurge/internal/bytesize"
	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/snapshot"
)

// DirNode is a directory in the tree rebuilt from a snapshot. Nodes belong
// to the reconstruction that produced them and are discarded after use.
type DirNode struct {
	Path    string
	Name    string
	SubDirs []*DirNode
}

// BuildTree rebuilds the nested directory tree from a snapshot and returns
// the top-level directories. Unnamed root records never contribute a path
// segment: their children are promoted to the top level.
func BuildTree(snap *snapshot.Snapshot) []*DirNode {
	var top []*DirNode
	for _, r := range snap.Roots() {
		if snap.IsSyntheticRoot(r) {
			for _, c := range snap.Children(r) {
				top = append(top, buildNode(snap, c, "/"))
			}
			continue
		}
		top = append(top, buildNode(snap, r, "/"))
	}
	return top
}

func buildNode(snap *snapshot.Snapshot, i int, parent string) *DirNode {
	name := snap.Dirs[i].Name
	n := &DirNode{
		Name: name,
		Path: path.Join(parent, name),
	}
	for _, c := range snap.Children(i) {
		n.SubDirs = append(n.SubDirs, buildNode(snap, c, n.Path))
	}
	return n
}

// Report renders the node and its subtree as a usage report. Sizes are
// looked up by path; a directory missing from the snapshot reports zero.
func (n *DirNode) Report(snap *snapshot.Snapshot) lotman.DirReport {
	r := lotman.DirReport{
		Path:            n.Name,
		IncludesSubdirs: len(n.SubDirs) > 0,
	}
	if u, ok := snap.FindDirUsage(n.Path); ok {
		r.SizeGB = bytesize.BytesToGB(u.Bytes())
	}
	for _, sub := range n.SubDirs {
		r.Subdirs = append(r.Subdirs, sub.Report(snap))
	}
	return r
}

// BuildUsageReport rebuilds the tree and renders every top-level directory.
func BuildUsageReport(snap *snapshot.Snapshot) []lotman.DirReport {
	top := BuildTree(snap)
	reports := make([]lotman.DirReport, 0, len(top))
	for _, n := range top {
		reports = append(reports, n.Report(snap))
	}
	return reports
}
