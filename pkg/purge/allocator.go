package purge

import (
	"context"

	"github.com/marmos91/lotpurge/internal/bytesize"
	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/internal/telemetry"
	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/snapshot"
)

// cycle is the state of one Plan call, threaded through every pass.
type cycle struct {
	id     string
	snap   *snapshot.Snapshot
	ledger Ledger
	budget int64
}

func newCycle(id string, snap *snapshot.Snapshot) *cycle {
	return &cycle{
		id:     id,
		snap:   snap,
		ledger: make(Ledger),
	}
}

// PassResult summarizes one policy pass.
type PassResult struct {
	Policy Policy `json:"policy" yaml:"policy"`
	Lots   int    `json:"lots" yaml:"lots"`
	Bytes  int64  `json:"bytes" yaml:"bytes"`
	Failed bool   `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// runPass lists the lots a policy selects and allocates from them. A listing
// failure ends the pass without touching the ledger.
func (p *Planner) runPass(ctx context.Context, c *cycle, pol Policy) PassResult {
	res := PassResult{Policy: pol}

	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithPolicy(pol.String()))
	}
	ctx, span := telemetry.StartPurgeSpan(ctx, "pass",
		telemetry.Policy(pol.String()), telemetry.PolicyKind(pol.Kind().String()))
	defer span.End()

	past, ok := pol.past()
	if !ok {
		logger.WarnCtx(ctx, "Skipping unknown policy")
		res.Failed = true
		return res
	}

	lots, err := p.authority.ListLotsPast(ctx, past, true)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to list lots for policy", logger.Err(err))
		telemetry.RecordError(ctx, err)
		res.Failed = true
		return res
	}

	if len(lots) > 0 {
		logger.DebugCtx(ctx, "Lots selected", logger.Count(len(lots)), "lots", joinLots(lots))
	}

	switch pol.Kind() {
	case KindComplete:
		res.Lots, res.Bytes = p.completePass(ctx, c, lots)
	case KindPartial:
		res.Lots, res.Bytes = p.partialPass(ctx, c, pol, lots)
	}

	telemetry.SetAttributes(ctx, telemetry.LotCount(res.Lots), telemetry.Allocated(res.Bytes))
	if p.metrics != nil {
		p.metrics.ObserveAllocation(pol, res.Bytes)
	}
	logger.InfoCtx(ctx, "Policy pass finished",
		logger.Count(res.Lots), logger.Bytes(res.Bytes), logger.Budget(c.budget))
	return res
}

// completePass reclaims everything the listed lots govern, within budget.
func (p *Planner) completePass(ctx context.Context, c *cycle, lots []string) (visited int, taken int64) {
	for _, lot := range lots {
		if c.budget <= 0 {
			break
		}
		visited++
		lctx := withLot(ctx, lot)

		for _, d := range p.lotDirUsage(lctx, c.snap, lot) {
			if c.budget <= 0 {
				break
			}
			n := c.ledger.take(d.path, d.bytes, c.budget)
			c.budget -= n
			taken += n
			if n > 0 {
				logger.DebugCtx(lctx, "Directory committed", logger.Path(d.path), logger.Bytes(n))
			}
		}
	}
	return visited, taken
}

// partialPass reclaims each listed lot's excess over its allotment, within
// budget. A lot at or under its allotment contributes nothing.
func (p *Planner) partialPass(ctx context.Context, c *cycle, pol Policy, lots []string) (visited int, taken int64) {
	for _, lot := range lots {
		if c.budget <= 0 {
			break
		}
		visited++
		lctx := withLot(ctx, lot)

		excess, ok := p.lotExcess(lctx, lot, pol)
		if !ok || excess <= 0 {
			continue
		}
		excess = min(excess, c.budget)

		for _, d := range p.lotDirUsage(lctx, c.snap, lot) {
			if c.budget <= 0 || excess <= 0 {
				break
			}
			n := c.ledger.take(d.path, d.bytes, excess)
			excess -= n
			c.budget -= n
			taken += n
			if n > 0 {
				logger.DebugCtx(lctx, "Directory committed", logger.Path(d.path), logger.Bytes(n))
			}
		}
	}
	return visited, taken
}

// lotExcess returns the bytes a lot uses beyond its dedicated allotment, or
// beyond dedicated plus opportunistic for the opportunistic policy.
func (p *Planner) lotExcess(ctx context.Context, lot string, pol Policy) (int64, bool) {
	q := lotman.UsageQuery{
		Lot:           lot,
		Total:         true,
		Dedicated:     true,
		Opportunistic: pol == PolicyPastOpp,
	}
	u, err := p.authority.GetUsage(ctx, q)
	if err != nil {
		logger.WarnCtx(ctx, "Skipping lot: usage unavailable", logger.Err(err))
		return 0, false
	}

	gb := u.TotalGB - u.DedicatedGB
	if pol == PolicyPastOpp {
		gb -= u.OpportunisticGB
	}
	return bytesize.GBToBytes(gb), true
}

func withLot(ctx context.Context, lot string) context.Context {
	if lc := logger.FromContext(ctx); lc != nil {
		return logger.WithContext(ctx, lc.WithLot(lot))
	}
	return ctx
}
