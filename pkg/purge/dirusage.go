package purge

import (
	"context"
	"path"
	"sort"

	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/pkg/snapshot"
)

// dirUsage is one directory governed by a lot with its snapshot usage.
type dirUsage struct {
	path  string
	bytes int64
}

// lotDirUsage resolves the directories governed by a lot and its
// descendants and looks up their usage in the snapshot. Paths are cleaned,
// so "/x" and "/x/" are one directory. Directories missing from the
// snapshot are skipped. The result is sorted by path.
func (p *Planner) lotDirUsage(ctx context.Context, snap *snapshot.Snapshot, lot string) []dirUsage {
	dirs, err := p.authority.GetLotDirs(ctx, lot, true)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to get lot directories", logger.Lot(lot), logger.Err(err))
		return nil
	}

	out := make([]dirUsage, 0, len(dirs))
	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		dir := path.Clean(d.Path)
		if seen[dir] {
			continue
		}
		seen[dir] = true

		u, ok := snap.FindDirUsage(dir)
		if !ok {
			logger.DebugCtx(ctx, "Lot directory not in snapshot", logger.Lot(lot), logger.Path(dir))
			continue
		}
		out = append(out, dirUsage{path: dir, bytes: u.Bytes()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}
