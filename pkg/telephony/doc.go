// Package telephony defines the fixed catalog of observable telephony state
// changes and the payload types carried with them.
//
// This package holds the vocabulary shared by producers, the registry and
// observers:
//   - EventKind: one entry in the closed catalog of state-change events
//   - EventSet: a set of event kinds, as requested by a listener
//   - Scope: how an event kind is addressed (broker-global, per phone, or per subscription)
//   - Payload types such as RadioPowerState, DisplayInfo or PreciseDataConnectionState
//
// Addressing uses two identifiers:
//   - a subscription id, the logical line (SIM profile) an observer cares about
//   - a phone id, the physical modem slot index that produced the event
//
// DefaultSubscriptionID is a sentinel meaning "whatever subscription is
// currently the default". It is resolved by the registry each time it is used,
// never stored as an alias.
//
// Example usage:
//
//	events := telephony.NewEventSet(
//		telephony.EventRadioPowerStateChanged,
//		telephony.EventDisplayInfoChanged,
//	)
//	for _, kind := range events.Kinds() {
//		fmt.Println(kind, kind.Scope())
//	}
//
//	// Render an APN type mask for logs
//	label := telephony.ApnTypesString(telephony.ApnTypeDefault | telephony.ApnTypeMMS) // "default,mms"
package telephony
