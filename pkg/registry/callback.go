package registry

import (
	"sync"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// Callback is an observer's capability set: the event kinds it can handle,
// each bound to a typed handler. A kind the callback has no handler for is
// never delivered to it, even if it was requested at listen time.
//
// Handlers run on the registry worker and should return quickly.
type Callback struct {
	handle Handle

	mu       sync.RWMutex
	handlers map[telephony.EventKind]func(payload any)
}

// NewCallback creates a callback with a fresh handle and no handlers.
func NewCallback() *Callback {
	return &Callback{
		handle:   NewHandle(),
		handlers: make(map[telephony.EventKind]func(any)),
	}
}

// Handle returns the callback identity
func (c *Callback) Handle() Handle {
	return c.handle
}

// Handles reports whether the callback has a handler for kind.
func (c *Callback) Handles(kind telephony.EventKind) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.handlers[kind]
	return ok
}

// Capabilities returns the set of kinds the callback can handle.
func (c *Callback) Capabilities() telephony.EventSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var set telephony.EventSet
	for kind := range c.handlers {
		set = set.With(kind)
	}
	return set
}

// Invoke delivers payload to the handler for kind. It reports false when
// the callback has no such handler or the payload has the wrong type.
func (c *Callback) Invoke(kind telephony.EventKind, payload any) bool {
	c.mu.RLock()
	handler, ok := c.handlers[kind]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	handler(payload)
	return true
}

func on[T any](c *Callback, kind telephony.EventKind, fn func(T)) *Callback {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		delete(c.handlers, kind)
		return c
	}
	c.handlers[kind] = func(payload any) {
		if v, ok := payload.(T); ok {
			fn(v)
		}
	}
	return c
}

// OnServiceStateChanged sets the handler for the service state of the line.
func (c *Callback) OnServiceStateChanged(fn func(telephony.ServiceState)) *Callback {
	return on(c, telephony.EventServiceStateChanged, fn)
}

// OnMessageWaitingIndicatorChanged sets the handler for the voicemail waiting indicator.
func (c *Callback) OnMessageWaitingIndicatorChanged(fn func(bool)) *Callback {
	return on(c, telephony.EventMessageWaitingIndicatorChanged, fn)
}

// OnCallForwardingIndicatorChanged sets the handler for the call forwarding indicator.
func (c *Callback) OnCallForwardingIndicatorChanged(fn func(bool)) *Callback {
	return on(c, telephony.EventCallForwardingIndicatorChanged, fn)
}

// OnCallStateChanged sets the handler for the coarse call state.
func (c *Callback) OnCallStateChanged(fn func(telephony.CallState)) *Callback {
	return on(c, telephony.EventCallStateChanged, fn)
}

// OnDataConnectionStateChanged sets the handler for the aggregate data connection state.
func (c *Callback) OnDataConnectionStateChanged(fn func(telephony.DataConnectionState)) *Callback {
	return on(c, telephony.EventDataConnectionStateChanged, fn)
}

// OnDataActivityChanged sets the handler for the data traffic direction.
func (c *Callback) OnDataActivityChanged(fn func(telephony.DataActivity)) *Callback {
	return on(c, telephony.EventDataActivityChanged, fn)
}

// OnSignalStrengthsChanged sets the handler for the signal strength.
func (c *Callback) OnSignalStrengthsChanged(fn func(telephony.SignalStrength)) *Callback {
	return on(c, telephony.EventSignalStrengthsChanged, fn)
}

// OnPreciseCallStateChanged sets the handler for the precise call state.
func (c *Callback) OnPreciseCallStateChanged(fn func(telephony.PreciseCallState)) *Callback {
	return on(c, telephony.EventPreciseCallStateChanged, fn)
}

// OnPreciseDataConnectionStateChanged sets the handler for the state of one data connection.
func (c *Callback) OnPreciseDataConnectionStateChanged(fn func(telephony.PreciseDataConnectionState)) *Callback {
	return on(c, telephony.EventPreciseDataConnectionStateChanged, fn)
}

// OnSrvccStateChanged sets the handler for the SRVCC handover state.
func (c *Callback) OnSrvccStateChanged(fn func(telephony.SrvccState)) *Callback {
	return on(c, telephony.EventSrvccStateChanged, fn)
}

// OnOemHookRaw sets the handler for the raw OEM hook data.
func (c *Callback) OnOemHookRaw(fn func([]byte)) *Callback {
	return on(c, telephony.EventOemHookRaw, fn)
}

// OnVoiceActivationStateChanged sets the handler for the voice activation state.
func (c *Callback) OnVoiceActivationStateChanged(fn func(telephony.ActivationState)) *Callback {
	return on(c, telephony.EventVoiceActivationStateChanged, fn)
}

// OnUserMobileDataStateChanged sets the handler for the user mobile data switch.
func (c *Callback) OnUserMobileDataStateChanged(fn func(bool)) *Callback {
	return on(c, telephony.EventUserMobileDataStateChanged, fn)
}

// OnDisplayInfoChanged sets the handler for the displayed network type.
func (c *Callback) OnDisplayInfoChanged(fn func(telephony.DisplayInfo)) *Callback {
	return on(c, telephony.EventDisplayInfoChanged, fn)
}

// OnPhoneCapabilityChanged sets the handler for the modem capability.
func (c *Callback) OnPhoneCapabilityChanged(fn func(telephony.PhoneCapability)) *Callback {
	return on(c, telephony.EventPhoneCapabilityChanged, fn)
}

// OnActiveDataSubscriptionIDChanged sets the handler for the active data subscription id.
func (c *Callback) OnActiveDataSubscriptionIDChanged(fn func(int)) *Callback {
	return on(c, telephony.EventActiveDataSubscriptionIDChanged, fn)
}

// OnRadioPowerStateChanged sets the handler for the radio power state.
func (c *Callback) OnRadioPowerStateChanged(fn func(telephony.RadioPowerState)) *Callback {
	return on(c, telephony.EventRadioPowerStateChanged, fn)
}

// OnCallAttributesChanged sets the handler for the call attributes.
func (c *Callback) OnCallAttributesChanged(fn func(telephony.CallAttributes)) *Callback {
	return on(c, telephony.EventCallAttributesChanged, fn)
}

// OnCallDisconnectCauseChanged sets the handler for the call disconnect cause.
func (c *Callback) OnCallDisconnectCauseChanged(fn func(telephony.DisconnectCause)) *Callback {
	return on(c, telephony.EventCallDisconnectCauseChanged, fn)
}

// OnEmergencyNumberListChanged sets the handler for the emergency number list.
func (c *Callback) OnEmergencyNumberListChanged(fn func([]telephony.EmergencyNumber)) *Callback {
	return on(c, telephony.EventEmergencyNumberListChanged, fn)
}

// OnOutgoingEmergencyCall sets the handler for the outgoing emergency call.
func (c *Callback) OnOutgoingEmergencyCall(fn func(telephony.EmergencyNumber)) *Callback {
	return on(c, telephony.EventOutgoingEmergencyCall, fn)
}

// OnOutgoingEmergencySms sets the handler for the outgoing emergency SMS.
func (c *Callback) OnOutgoingEmergencySms(fn func(telephony.EmergencyNumber)) *Callback {
	return on(c, telephony.EventOutgoingEmergencySms, fn)
}

// OnImsCallDisconnectCauseChanged sets the handler for the IMS call disconnect cause.
func (c *Callback) OnImsCallDisconnectCauseChanged(fn func(telephony.ImsReasonInfo)) *Callback {
	return on(c, telephony.EventImsCallDisconnectCauseChanged, fn)
}

// OnRegistrationFailure sets the handler for the network registration failure.
func (c *Callback) OnRegistrationFailure(fn func(telephony.RegistrationFailure)) *Callback {
	return on(c, telephony.EventRegistrationFailure, fn)
}

// OnBarringInfoChanged sets the handler for the barring info.
func (c *Callback) OnBarringInfoChanged(fn func(telephony.BarringInfo)) *Callback {
	return on(c, telephony.EventBarringInfoChanged, fn)
}

// OnPhysicalChannelConfigChanged sets the handler for the physical channel configuration.
func (c *Callback) OnPhysicalChannelConfigChanged(fn func([]telephony.PhysicalChannelConfig)) *Callback {
	return on(c, telephony.EventPhysicalChannelConfigChanged, fn)
}

// OnDataEnabledChanged sets the handler for the data enabled state.
func (c *Callback) OnDataEnabledChanged(fn func(telephony.DataEnabled)) *Callback {
	return on(c, telephony.EventDataEnabledChanged, fn)
}

// OnAllowedNetworkTypesChanged sets the handler for the allowed network types.
func (c *Callback) OnAllowedNetworkTypesChanged(fn func(telephony.AllowedNetworkTypes)) *Callback {
	return on(c, telephony.EventAllowedNetworkTypesChanged, fn)
}

// OnLinkCapacityEstimateChanged sets the handler for the link capacity estimates.
func (c *Callback) OnLinkCapacityEstimateChanged(fn func([]telephony.LinkCapacityEstimate)) *Callback {
	return on(c, telephony.EventLinkCapacityEstimateChanged, fn)
}

// On sets an untyped handler for kind. Unknown kinds are ignored.
func (c *Callback) On(kind telephony.EventKind, fn func(payload any)) *Callback {
	if !kind.Valid() {
		return c
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		delete(c.handlers, kind)
		return c
	}
	c.handlers[kind] = fn
	return c
}
