// Package lotman is the quota authority consulted by the purge planner.
//
// A lot is a named ownership record governing one or more directory paths,
// with dedicated and opportunistic allotments and optional expiration and
// deletion deadlines. Lots form a hierarchy through their parent lists; a lot
// whose only parent is itself (or that has none) is a root lot.
//
// Lots are persisted through a Store (memory, SQL via GORM, or BadgerDB).
// Manager layers the authority semantics on top: usage attribution from
// directory reports, recursive totals, and the "lots past X" listings.
package lotman

import (
	"fmt"
	"path"
	"strings"

	"github.com/samber/lo"
)

// DefaultLot receives usage for directories no other lot claims.
const DefaultLot = "default"

// ContextLotHome is the context key holding the authority's home directory.
const ContextLotHome = "lot_home"

// LotPath is one directory governed by a lot.
type LotPath struct {
	Path      string `json:"path" yaml:"path"`
	Recursive bool   `json:"recursive" yaml:"recursive"`
}

// ManagementPolicyAttrs holds a lot's allotments and deadlines.
// Times are milliseconds since the Unix epoch; zero means "never".
type ManagementPolicyAttrs struct {
	DedicatedGB     float64 `json:"dedicated_GB" yaml:"dedicated_GB"`
	OpportunisticGB float64 `json:"opportunistic_GB" yaml:"opportunistic_GB"`
	MaxNumObjects   int64   `json:"max_num_objects" yaml:"max_num_objects"`
	CreationTime    int64   `json:"creation_time" yaml:"creation_time"`
	ExpirationTime  int64   `json:"expiration_time" yaml:"expiration_time"`
	DeletionTime    int64   `json:"deletion_time" yaml:"deletion_time"`
}

// LotUsage is the usage attributed to the lot itself, children excluded.
type LotUsage struct {
	SelfGB    float64 `json:"self_GB" yaml:"self_GB"`
	UpdatedAt int64   `json:"updated_at" yaml:"updated_at"`
}

// Lot is a quota entity.
type Lot struct {
	Name    string                `json:"lot_name" yaml:"lot_name"`
	Owner   string                `json:"owner" yaml:"owner"`
	Parents []string              `json:"parents" yaml:"parents"`
	Paths   []LotPath             `json:"paths" yaml:"paths"`
	MPA     ManagementPolicyAttrs `json:"management_policy_attrs" yaml:"management_policy_attrs"`
	Usage   LotUsage              `json:"usage" yaml:"usage"`
}

// IsRoot reports whether the lot has no parent other than itself.
func (l *Lot) IsRoot() bool {
	return lo.EveryBy(l.Parents, func(p string) bool { return p == l.Name })
}

// Clone returns a deep copy of the lot.
func (l *Lot) Clone() *Lot {
	if l == nil {
		return nil
	}
	c := *l
	c.Parents = append([]string(nil), l.Parents...)
	c.Paths = append([]LotPath(nil), l.Paths...)
	return &c
}

// Validate checks the lot's own fields. Cross-lot checks (parents exist,
// name unique) are done by the Manager.
func (l *Lot) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: lot name is required", ErrInvalidLot)
	}
	if strings.ContainsAny(l.Name, " \t\n") {
		return fmt.Errorf("%w: lot name %q contains whitespace", ErrInvalidLot, l.Name)
	}
	for _, p := range l.Paths {
		if !strings.HasPrefix(p.Path, "/") {
			return fmt.Errorf("%w: lot %q path %q is not absolute", ErrInvalidLot, l.Name, p.Path)
		}
	}
	if l.MPA.DedicatedGB < 0 || l.MPA.OpportunisticGB < 0 {
		return fmt.Errorf("%w: lot %q has a negative allotment", ErrInvalidLot, l.Name)
	}
	if l.MPA.MaxNumObjects < 0 {
		return fmt.Errorf("%w: lot %q has a negative object limit", ErrInvalidLot, l.Name)
	}
	return nil
}

// normalize cleans paths and makes the self-parent convention explicit.
func (l *Lot) normalize() {
	for i := range l.Paths {
		l.Paths[i].Path = path.Clean(l.Paths[i].Path)
	}
	if len(l.Parents) == 0 {
		l.Parents = []string{l.Name}
	}
	l.Parents = lo.Uniq(l.Parents)
}
