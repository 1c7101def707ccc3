package purge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/internal/telemetry"
	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/snapshot"
)

// Watermarks are the usage thresholds of the cache, in bytes. A cycle
// starts reclaiming at High and aims to bring usage down to Low.
type Watermarks struct {
	High int64 `json:"high" yaml:"high"`
	Low  int64 `json:"low" yaml:"low"`
}

// Validate checks that both thresholds are non-negative and Low <= High.
func (w Watermarks) Validate() error {
	if w.High < 0 || w.Low < 0 {
		return fmt.Errorf("%w: watermarks must be non-negative", ErrInvalidWatermarks)
	}
	if w.Low > w.High {
		return fmt.Errorf("%w: low watermark %d exceeds high watermark %d", ErrInvalidWatermarks, w.Low, w.High)
	}
	return nil
}

// Options configures a Planner.
type Options struct {
	Watermarks Watermarks

	// DirSuffix is appended to planned paths that do not already end with
	// it, for executors that expect a trailing separator.
	DirSuffix string

	// Metrics may be nil.
	Metrics Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// Planner runs purge cycles against a lot authority.
//
// Cycles are serialized; Configure and the read accessors are safe to call
// while a cycle runs.
type Planner struct {
	authority  Authority
	watermarks Watermarks
	dirSuffix  string
	metrics    Metrics
	now        func() time.Time

	cycleMu sync.Mutex

	mu   sync.RWMutex
	pin  *PinConfig
	last *Result
}

// NewPlanner returns a Planner. Until Configure succeeds, cycles run the
// default policy order and rely on the authority's existing lot home.
func NewPlanner(authority Authority, opts Options) (*Planner, error) {
	if authority == nil {
		return nil, fmt.Errorf("authority is required")
	}
	if err := opts.Watermarks.Validate(); err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Planner{
		authority:  authority,
		watermarks: opts.Watermarks,
		dirSuffix:  opts.DirSuffix,
		metrics:    opts.Metrics,
		now:        now,
	}, nil
}

// Configure parses the purge parameter string and records the lot home in
// the authority. On any failure the previous configuration stays in effect.
func (p *Planner) Configure(ctx context.Context, params string) error {
	cfg, err := ParsePinConfig(params)
	if err != nil {
		logger.ErrorCtx(ctx, "Invalid purge parameters", "params", params, logger.Err(err))
		return err
	}

	if err := p.authority.SetContextValue(ctx, lotman.ContextLotHome, cfg.LotHome); err != nil {
		return fmt.Errorf("failed to set lot home: %w", err)
	}

	p.mu.Lock()
	p.pin = cfg
	p.mu.Unlock()

	logger.InfoCtx(ctx, "Purge configured",
		logger.KeyLotHome, cfg.LotHome, logger.KeyPolicies, PolicyNames(cfg.Policies))
	return nil
}

// PinConfig returns a copy of the active configuration, or nil before the
// first successful Configure.
func (p *Planner) PinConfig() *PinConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pin.clone()
}

// Policies returns the policy order the next cycle will run.
func (p *Planner) Policies() []Policy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.pin == nil {
		return DefaultPolicies()
	}
	return append([]Policy(nil), p.pin.Policies...)
}

// Watermarks returns the configured thresholds.
func (p *Planner) Watermarks() Watermarks {
	return p.watermarks
}

// LastResult returns the result of the most recent cycle, or nil.
func (p *Planner) LastResult() *Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Plan runs one purge cycle over snap.
//
// The returned Result is never nil when snap is non-nil. An error is
// returned only for undetermined cycles and always wraps ErrUndetermined;
// a failed policy pass is reported in Result.Passes instead.
func (p *Planner) Plan(ctx context.Context, snap *snapshot.Snapshot) (*Result, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}

	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	c := newCycle(uuid.NewString(), snap)
	start := p.now()
	wall := time.Now()

	ctx, span := telemetry.StartPurgeSpan(ctx, "plan", telemetry.CycleID(c.id))
	defer span.End()

	lc := logger.NewLogContext(c.id).WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	res := &Result{
		CycleID:       c.id,
		HighWatermark: p.watermarks.High,
		LowWatermark:  p.watermarks.Low,
		StartedAt:     start,
		ledger:        c.ledger,
	}

	err := p.runCycle(ctx, c, res)
	if err != nil {
		res.Status = StatusUndetermined
		res.Error = err.Error()
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Purge cycle undetermined", logger.Err(err))
	}
	res.FinishedAt = p.now()
	logger.DebugCtx(ctx, "Purge cycle finished",
		logger.KeyStatus, string(res.Status), logger.DurationMs(wall))

	telemetry.SetAttributes(ctx,
		telemetry.CycleStatus(string(res.Status)),
		telemetry.TotalUsage(res.TotalUsage),
		telemetry.BytesToRecover(res.BytesToRecover),
		telemetry.Unallocated(res.Unallocated),
		telemetry.DirCount(len(res.Dirs)),
	)

	if p.metrics != nil {
		p.metrics.ObserveCycle(res.Status, res.FinishedAt.Sub(start))
		if res.Status != StatusUndetermined {
			p.metrics.RecordUsage(res.TotalUsage, res.BytesToRecover, res.Unallocated)
			p.metrics.RecordPlannedDirs(len(res.Dirs))
		}
	}

	p.mu.Lock()
	p.last = res
	p.mu.Unlock()

	return res, err
}

func (p *Planner) runCycle(ctx context.Context, c *cycle, res *Result) error {
	if _, err := p.authority.GetContextValue(ctx, lotman.ContextLotHome); err != nil {
		return fmt.Errorf("%w: lot home unavailable: %w", ErrUndetermined, err)
	}

	if err := p.authority.UpdateUsageByDir(ctx, BuildUsageReport(c.snap), false); err != nil {
		return fmt.Errorf("%w: usage update failed: %w", ErrUndetermined, err)
	}

	total, err := p.totalUsage(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUndetermined, err)
	}
	res.TotalUsage = total

	if total < p.watermarks.High {
		res.Status = StatusBelowWatermark
		logger.InfoCtx(ctx, "Usage below high watermark",
			logger.Total(total), logger.KeyHWM, p.watermarks.High)
		return nil
	}

	c.budget = total - p.watermarks.Low
	res.BytesToRecover = c.budget

	policies := p.Policies()
	logger.InfoCtx(ctx, "Purge cycle started",
		logger.Total(total), logger.KeyHWM, p.watermarks.High, logger.KeyLWM, p.watermarks.Low,
		logger.Budget(c.budget), logger.KeyPolicies, PolicyNames(policies))

	for _, pol := range policies {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrUndetermined, err)
		}
		res.Passes = append(res.Passes, p.runPass(ctx, c, pol))
	}

	res.Unallocated = c.budget
	res.Dirs = c.ledger.emit(p.dirSuffix)
	res.Status = StatusPlanned

	logger.InfoCtx(ctx, "Purge cycle planned",
		logger.Bytes(c.ledger.Committed()), logger.Budget(c.budget), logger.Count(len(res.Dirs)))
	return nil
}

// GetBytesToRecover runs a cycle and returns only the reclamation target.
// It returns 0 both below the high watermark and on failure; use Plan to
// tell the two apart.
func (p *Planner) GetBytesToRecover(ctx context.Context, snap *snapshot.Snapshot) int64 {
	res, err := p.Plan(ctx, snap)
	if err != nil || res == nil {
		return 0
	}
	return res.BytesToRecover
}
