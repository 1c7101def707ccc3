package purge

import (
	"context"
	"fmt"

	"github.com/marmos91/lotpurge/internal/bytesize"
	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/pkg/lotman"
)

// totalUsage sums the total usage of every root lot, in bytes. Child lots
// are already part of their roots' totals.
//
// A listing failure is returned; a lot whose root status or usage cannot be
// read is skipped.
func (p *Planner) totalUsage(ctx context.Context) (int64, error) {
	lots, err := p.authority.ListAllLots(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to list lots", logger.Err(err))
		return 0, fmt.Errorf("failed to list lots: %w", err)
	}

	var total int64
	for _, lot := range lots {
		root, err := p.authority.IsRoot(ctx, lot)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping lot: root status unavailable", logger.Lot(lot), logger.Err(err))
			continue
		}
		if !root {
			continue
		}

		u, err := p.authority.GetUsage(ctx, lotman.UsageQuery{Lot: lot, Total: true})
		if err != nil {
			logger.WarnCtx(ctx, "Skipping lot: usage unavailable", logger.Lot(lot), logger.Err(err))
			continue
		}

		n := bytesize.GBToBytes(u.TotalGB)
		logger.DebugCtx(ctx, "Root lot usage", logger.Lot(lot), logger.Bytes(n))
		total += n
	}
	return total, nil
}
