package purge

import (
	"context"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// Authority is the lot quota authority the planner consults.
//
// *lotman.Manager satisfies it. Sizes cross this boundary in GB (2^30 bytes)
// and are converted to bytes by the planner.
type Authority interface {
	ListAllLots(ctx context.Context) ([]string, error)
	IsRoot(ctx context.Context, lot string) (bool, error)
	ListLotsPast(ctx context.Context, past lotman.Past, recursiveChildren bool) ([]string, error)
	GetUsage(ctx context.Context, q lotman.UsageQuery) (lotman.Usage, error)
	GetLotDirs(ctx context.Context, lot string, recursive bool) ([]lotman.LotDir, error)
	UpdateUsageByDir(ctx context.Context, reports []lotman.DirReport, deltaMode bool) error
	GetContextValue(ctx context.Context, key string) (string, error)
	SetContextValue(ctx context.Context, key, value string) error
}

var _ Authority = (*lotman.Manager)(nil)
