package permission

import (
	"fmt"
	"strings"
)

// Tier is a named permission requirement level.
type Tier int

const (
	TierNone Tier = iota
	TierPhoneState
	TierPrecisePhoneState
	TierPrivilegedPhoneState
	TierActiveEmergencySession
)

var tierNames = map[Tier]string{
	TierNone:                   "none",
	TierPhoneState:             "READ_PHONE_STATE",
	TierPrecisePhoneState:      "READ_PRECISE_PHONE_STATE",
	TierPrivilegedPhoneState:   "READ_PRIVILEGED_PHONE_STATE",
	TierActiveEmergencySession: "READ_ACTIVE_EMERGENCY_SESSION",
}

// String returns the permission name guarding the tier
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier accepts a permission name, case-insensitively, with or without
// the "READ_" prefix.
func ParseTier(s string) (Tier, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	for tier, name := range tierNames {
		if norm == strings.ToUpper(name) || "READ_"+norm == name {
			return tier, nil
		}
	}
	return TierNone, fmt.Errorf("unknown permission tier %q", s)
}

// Caller identifies the process asking to listen.
type Caller struct {
	// Package is the calling package name
	Package string

	// AttributionTag distinguishes components within one package
	AttributionTag string

	// Credential is an optional grant token presented by the caller
	Credential string
}

// String renders the caller for logs, without the credential
func (c Caller) String() string {
	if c.AttributionTag == "" {
		return c.Package
	}
	return c.Package + "#" + c.AttributionTag
}

// Authority decides whether a caller currently holds a tier.
// Implementations must be safe for concurrent use.
type Authority interface {
	IsAllowed(caller Caller, tier Tier) bool
}

// AuthorityFunc adapts a function to the Authority interface.
type AuthorityFunc func(caller Caller, tier Tier) bool

// IsAllowed calls f(caller, tier).
func (f AuthorityFunc) IsAllowed(caller Caller, tier Tier) bool {
	return f(caller, tier)
}

// AllowAll grants every tier. Intended for tests and local tooling.
var AllowAll Authority = AuthorityFunc(func(Caller, Tier) bool { return true })
