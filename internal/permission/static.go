package permission

import (
	"sync"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
)

// AnyPackage grants a tier to every caller.
const AnyPackage = "*"

// StaticAuthority is an in-memory grant table keyed by caller package.
// It is safe for concurrent use; grants take effect on the next check.
type StaticAuthority struct {
	mu     sync.RWMutex
	grants map[string]map[permission.Tier]bool // package -> tiers
}

// NewStaticAuthority creates an authority with no grants.
func NewStaticAuthority() *StaticAuthority {
	return &StaticAuthority{
		grants: make(map[string]map[permission.Tier]bool),
	}
}

// Grant gives pkg the listed tiers. Use AnyPackage to grant to all callers.
func (a *StaticAuthority) Grant(pkg string, tiers ...permission.Tier) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, ok := a.grants[pkg]
	if !ok {
		set = make(map[permission.Tier]bool)
		a.grants[pkg] = set
	}
	for _, tier := range tiers {
		set[tier] = true
	}
}

// Revoke removes the listed tiers from pkg.
func (a *StaticAuthority) Revoke(pkg string, tiers ...permission.Tier) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set := a.grants[pkg]
	for _, tier := range tiers {
		delete(set, tier)
	}
	if len(set) == 0 {
		delete(a.grants, pkg)
	}
}

// Reset clears every grant.
func (a *StaticAuthority) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.grants = make(map[string]map[permission.Tier]bool)
}

// IsAllowed reports whether caller's package, or AnyPackage, holds tier.
func (a *StaticAuthority) IsAllowed(caller permission.Caller, tier permission.Tier) bool {
	if tier == permission.TierNone {
		return true
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.grants[caller.Package][tier] || a.grants[AnyPackage][tier]
}

// Verify that StaticAuthority implements the Authority interface at compile time
var _ permission.Authority = (*StaticAuthority)(nil)
