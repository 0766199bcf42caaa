// Package registry provides the public contract of the telephony state registry.
//
// This package defines the abstractions observers and producers share:
//   - Registry: the broker interface (listen, notify, consumed topology signals)
//   - Callback: an observer's capability set, one typed handler per event kind
//   - Handle: the stable identity of a Callback across re-registrations
//   - Stats and HealthStatus: monitoring views of a running broker
//
// Delivery model:
//  1. Producers call a Notify method; the call enqueues and returns immediately
//  2. A single worker applies work in FIFO order
//  3. Changed values are cached, unchanged values are dropped
//  4. Matching observers are invoked on the worker, one at a time
//
// Permissions are checked only when an observer registers. A registration
// that asks for any event the caller may not read is rejected as a whole.
//
// Example usage:
//
//	cb := registry.NewCallback().
//		OnRadioPowerStateChanged(func(state telephony.RadioPowerState) {
//			log.Printf("radio power: %s", state)
//		}).
//		OnDisplayInfoChanged(func(info telephony.DisplayInfo) {
//			log.Printf("display network type: %d", info.NetworkType)
//		})
//
//	events := telephony.NewEventSet(
//		telephony.EventRadioPowerStateChanged,
//		telephony.EventDisplayInfoChanged,
//	)
//	err := reg.Listen(ctx, telephony.DefaultSubscriptionID, caller, cb, events, true)
//	if errors.Is(err, registry.ErrPermissionDenied) {
//		return err
//	}
//
// Observers must keep their Callback reachable for as long as they want to
// be notified; the registry does not keep it alive.
package registry
