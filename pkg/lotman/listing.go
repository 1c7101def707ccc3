package lotman

import (
	"context"
	"fmt"
	"strings"

	"github.com/marmos91/lotpurge/internal/telemetry"
)

// Past selects one of the "lots past X" listings.
type Past int

const (
	// PastDeletion lists lots whose deletion time has passed.
	PastDeletion Past = iota
	// PastExpiration lists lots whose expiration time has passed.
	PastExpiration
	// PastOpportunistic lists lots using more than dedicated plus opportunistic allotments.
	PastOpportunistic
	// PastDedicated lists lots using more than their dedicated allotment.
	PastDedicated
)

func (p Past) String() string {
	switch p {
	case PastDeletion:
		return "deletion"
	case PastExpiration:
		return "expiration"
	case PastOpportunistic:
		return "opportunistic"
	case PastDedicated:
		return "dedicated"
	default:
		return fmt.Sprintf("Past(%d)", int(p))
	}
}

// ParsePast maps a listing name (deletion, expiration, opportunistic,
// dedicated) to a Past.
func ParsePast(s string) (Past, error) {
	for _, p := range []Past{PastDeletion, PastExpiration, PastOpportunistic, PastDedicated} {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown listing %q", ErrInvalidQuery, s)
}

// ListLotsPast returns the lots matching a listing, sorted by name. With
// recursiveChildren set, the descendants of every matching lot follow it in
// the result, each lot appearing once.
func (m *Manager) ListLotsPast(ctx context.Context, past Past, recursiveChildren bool) ([]string, error) {
	ctx, span := telemetry.StartLotSpan(ctx, "list_past", telemetry.Listing(past.String()))
	defer span.End()

	ix, err := m.index(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	nowMs := m.now().UnixMilli()
	memo := make(map[string]float64)

	var matches func(l *Lot) bool
	switch past {
	case PastDeletion:
		matches = func(l *Lot) bool { return deadlinePassed(l.MPA.DeletionTime, nowMs) }
	case PastExpiration:
		matches = func(l *Lot) bool { return deadlinePassed(l.MPA.ExpirationTime, nowMs) }
	case PastOpportunistic:
		matches = func(l *Lot) bool {
			return ix.totalGB(l.Name, memo) > l.MPA.DedicatedGB+l.MPA.OpportunisticGB
		}
	case PastDedicated:
		matches = func(l *Lot) bool { return ix.totalGB(l.Name, memo) > l.MPA.DedicatedGB }
	default:
		return nil, fmt.Errorf("unknown listing %s", past)
	}

	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, name := range ix.names {
		if !matches(ix.lots[name]) {
			continue
		}
		add(name)
		if recursiveChildren {
			for _, d := range ix.descendants(name) {
				add(d)
			}
		}
	}

	telemetry.SetAttributes(ctx, telemetry.LotCount(len(out)))
	if m.metrics != nil {
		m.metrics.ObserveListing(past, len(out))
	}
	return out, nil
}

func deadlinePassed(deadlineMs, nowMs int64) bool {
	return deadlineMs > 0 && deadlineMs <= nowMs
}
