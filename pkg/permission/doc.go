// Package permission defines the permission tiers that gate event
// subscriptions and the contract of the external authority deciding grants.
//
// The registry never evaluates operating-system grants itself. It asks an
// Authority, once per required tier and per Listen call, whether a Caller
// holds a tier. Answers are never cached because grants can change between
// calls.
//
// Tiers:
//   - TierNone: no permission needed
//   - TierPhoneState: basic phone state (message waiting, emergency numbers, ...)
//   - TierPrecisePhoneState: precise call and data state
//   - TierPrivilegedPhoneState: system-only state (SRVCC, radio power, ...)
//   - TierActiveEmergencySession: outgoing emergency call/SMS activity
package permission
