package purge

import (
	"fmt"
	"strings"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// Policy is one reclamation pass.
type Policy int

const (
	PolicyUnknown Policy = iota
	// PolicyPastDel reclaims lots whose deletion time has passed.
	PolicyPastDel
	// PolicyPastExp reclaims lots whose expiration time has passed.
	PolicyPastExp
	// PolicyPastOpp reclaims usage beyond dedicated plus opportunistic allotments.
	PolicyPastOpp
	// PolicyPastDed reclaims usage beyond the dedicated allotment.
	PolicyPastDed
)

// Kind groups policies by how much of a matching lot they reclaim.
type Kind int

const (
	// KindComplete reclaims everything a lot governs.
	KindComplete Kind = iota
	// KindPartial reclaims only the lot's excess over an allotment.
	KindPartial
)

func (k Kind) String() string {
	if k == KindPartial {
		return "partial"
	}
	return "complete"
}

var policyNames = map[Policy]string{
	PolicyPastDel: "LotsPastDel",
	PolicyPastExp: "LotsPastExp",
	PolicyPastOpp: "LotsPastOpp",
	PolicyPastDed: "LotsPastDed",
}

var shortNames = map[string]Policy{
	"del": PolicyPastDel,
	"exp": PolicyPastExp,
	"opp": PolicyPastOpp,
	"ded": PolicyPastDed,
}

// String returns the display name used in logs and plans.
func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "UnknownPolicy"
}

// ShortName returns the configuration token for the policy.
func (p Policy) ShortName() string {
	for short, pol := range shortNames {
		if pol == p {
			return short
		}
	}
	return ""
}

// Kind reports whether the policy is complete or partial.
func (p Policy) Kind() Kind {
	switch p {
	case PolicyPastOpp, PolicyPastDed:
		return KindPartial
	default:
		return KindComplete
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts either the short or the display name.
func (p *Policy) UnmarshalText(text []byte) error {
	s := string(text)
	if pol := ParsePolicy(s); pol != PolicyUnknown {
		*p = pol
		return nil
	}
	for pol, name := range policyNames {
		if strings.EqualFold(name, s) {
			*p = pol
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// past maps the policy to the authority listing that selects its lots.
func (p Policy) past() (lotman.Past, bool) {
	switch p {
	case PolicyPastDel:
		return lotman.PastDeletion, true
	case PolicyPastExp:
		return lotman.PastExpiration, true
	case PolicyPastOpp:
		return lotman.PastOpportunistic, true
	case PolicyPastDed:
		return lotman.PastDedicated, true
	default:
		return 0, false
	}
}

// ParsePolicy maps a configuration token (del, exp, opp, ded) to a Policy.
// Anything else yields PolicyUnknown.
func ParsePolicy(short string) Policy {
	if p, ok := shortNames[short]; ok {
		return p
	}
	return PolicyUnknown
}

// DefaultPolicies is the order used when the configuration names none.
func DefaultPolicies() []Policy {
	return []Policy{PolicyPastDel, PolicyPastExp, PolicyPastOpp, PolicyPastDed}
}

// PolicyNames renders a policy list for log lines.
func PolicyNames(policies []Policy) string {
	names := make([]string, len(policies))
	for i, p := range policies {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}
