package registry

import (
	"context"
	"io"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// Registry brokers telephony state changes between producers and observers.
//
// Notify methods never block and never fail: invalid scopes and unchanged
// values are dropped. Listen fails synchronously only for permission,
// argument and lifecycle errors; the registration itself and any replay
// happen asynchronously, in order with other work.
type Registry interface {
	io.Closer

	// Start launches the worker. Work enqueued before Start is held.
	Start(ctx context.Context) error

	// Stop drains pending work and stops the worker.
	Stop(ctx context.Context) error

	// Listen registers, updates or (with an empty set) removes callback.
	// With notifyNow the current cached values of every requested kind are
	// replayed to the callback before any later change.
	Listen(ctx context.Context, target int, caller permission.Caller, callback *Callback, events telephony.EventSet, notifyNow bool) error

	// Unlisten removes the registration of handle, if any.
	Unlisten(handle Handle)

	// TopologyChanged reports a new number of active modem slots.
	TopologyChanged(activeSlots int)

	// DefaultScopeChanged reports a new default subscription and its slot.
	DefaultScopeChanged(subID, slot int)

	// BindSubscription reports that subID is now served by slot.
	BindSubscription(subID, slot int)

	// UnbindSubscription reports that subID is no longer served by any slot.
	UnbindSubscription(subID int)

	// Drain returns once all work enqueued before the call has been applied.
	Drain(ctx context.Context) error

	// Stats returns a snapshot of the registry counters.
	Stats() Stats

	// GetHealth returns the health status of the registry.
	GetHealth(ctx context.Context) (HealthStatus, error)

	Notifier
}

// Notifier is the producer side of the registry, one method per event kind.
type Notifier interface {
	NotifyServiceStateChanged(phoneID, subID int, state telephony.ServiceState)
	NotifyMessageWaitingChanged(phoneID, subID int, waiting bool)
	NotifyCallForwardingChanged(phoneID, subID int, forwarding bool)
	NotifyCallState(phoneID, subID int, state telephony.CallState)
	NotifyDataConnectionState(phoneID, subID int, state telephony.DataConnectionState)
	NotifyDataActivity(phoneID, subID int, activity telephony.DataActivity)
	NotifySignalStrength(phoneID, subID int, strength telephony.SignalStrength)
	NotifyPreciseCallState(phoneID, subID int, state telephony.PreciseCallState)
	NotifyDataConnectionForSubscriber(phoneID, subID int, state telephony.PreciseDataConnectionState)
	NotifySrvccStateChanged(subID int, state telephony.SrvccState)
	NotifyOemHookRaw(phoneID, subID int, raw []byte)
	NotifyVoiceActivationState(phoneID, subID int, state telephony.ActivationState)
	NotifyUserMobileDataState(phoneID, subID int, enabled bool)
	NotifyDisplayInfoChanged(phoneID, subID int, info telephony.DisplayInfo)
	NotifyPhoneCapabilityChanged(capability telephony.PhoneCapability)
	NotifyActiveDataSubIDChanged(subID int)
	NotifyRadioPowerStateChanged(phoneID, subID int, state telephony.RadioPowerState)
	NotifyCallAttributes(phoneID, subID int, attributes telephony.CallAttributes)
	NotifyDisconnectCause(phoneID, subID int, cause telephony.DisconnectCause)
	NotifyEmergencyNumberList(phoneID, subID int, numbers []telephony.EmergencyNumber)
	NotifyOutgoingEmergencyCall(phoneID, subID int, number telephony.EmergencyNumber)
	NotifyOutgoingEmergencySms(phoneID, subID int, number telephony.EmergencyNumber)
	NotifyImsDisconnectCause(phoneID, subID int, reason telephony.ImsReasonInfo)
	NotifyRegistrationFailed(phoneID, subID int, failure telephony.RegistrationFailure)
	NotifyBarringInfo(phoneID, subID int, info telephony.BarringInfo)
	NotifyPhysicalChannelConfig(phoneID, subID int, configs []telephony.PhysicalChannelConfig)
	NotifyDataEnabled(phoneID, subID int, state telephony.DataEnabled)
	NotifyAllowedNetworkTypesChanged(phoneID, subID int, allowed telephony.AllowedNetworkTypes)
	NotifyLinkCapacityEstimateChanged(phoneID, subID int, estimates []telephony.LinkCapacityEstimate)
}

// Stats holds registry counters. All counts are since creation.
type Stats struct {
	// Enqueued is the number of work items accepted into the queue
	Enqueued uint64

	// Processed is the number of work items applied by the worker
	Processed uint64

	// Pending is the current queue depth
	Pending int

	// Notifications is the number of notify calls that changed cached state
	Notifications uint64

	// Deduplicated is the number of notify calls carrying an unchanged value
	Deduplicated uint64

	// Dropped is the number of notify calls rejected for an invalid scope or kind
	Dropped uint64

	// Deliveries is the number of callback invocations caused by changes
	Deliveries uint64

	// Replays is the number of callback invocations caused by replay
	Replays uint64

	// CallbackPanics is the number of callback invocations that panicked
	CallbackPanics uint64

	// Subscriptions is the current number of registered callbacks
	Subscriptions int
}

// HealthStatus represents the overall health of a registry
type HealthStatus struct {
	// Healthy indicates if the registry is functioning properly
	Healthy bool

	// WorkerRunning indicates if the dispatch worker is running
	WorkerRunning bool

	// ActiveSlots is the current number of active modem slots
	ActiveSlots int

	// Subscriptions is the number of registered callbacks
	Subscriptions int

	// Pending is the current queue depth
	Pending int

	// Message provides additional health information
	Message string
}
