package registry

import (
	"maps"
	"slices"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// Notify methods copy slice and map payloads before enqueueing, so the
// caller may reuse its buffers. A negative subID addresses the phone only.

// NotifyServiceStateChanged reports the service state of phoneID.
func (b *Broker) NotifyServiceStateChanged(phoneID, subID int, state telephony.ServiceState) {
	b.post(telephony.EventServiceStateChanged, phoneID, subID, "", state)
}

// NotifyMessageWaitingChanged reports whether voicemail is waiting on the line.
func (b *Broker) NotifyMessageWaitingChanged(phoneID, subID int, waiting bool) {
	b.post(telephony.EventMessageWaitingIndicatorChanged, phoneID, subID, "", waiting)
}

// NotifyCallForwardingChanged reports whether call forwarding is active.
func (b *Broker) NotifyCallForwardingChanged(phoneID, subID int, forwarding bool) {
	b.post(telephony.EventCallForwardingIndicatorChanged, phoneID, subID, "", forwarding)
}

// NotifyCallState reports the coarse call state of the line.
func (b *Broker) NotifyCallState(phoneID, subID int, state telephony.CallState) {
	b.post(telephony.EventCallStateChanged, phoneID, subID, "", state)
}

// NotifyDataConnectionState reports the aggregate mobile data connection state.
func (b *Broker) NotifyDataConnectionState(phoneID, subID int, state telephony.DataConnectionState) {
	b.post(telephony.EventDataConnectionStateChanged, phoneID, subID, "", state)
}

// NotifyDataActivity reports the direction of data traffic.
func (b *Broker) NotifyDataActivity(phoneID, subID int, activity telephony.DataActivity) {
	b.post(telephony.EventDataActivityChanged, phoneID, subID, "", activity)
}

// NotifySignalStrength reports the signal strength of phoneID.
func (b *Broker) NotifySignalStrength(phoneID, subID int, strength telephony.SignalStrength) {
	b.post(telephony.EventSignalStrengthsChanged, phoneID, subID, "", strength)
}

// NotifyPreciseCallState reports the state of every call slot.
func (b *Broker) NotifyPreciseCallState(phoneID, subID int, state telephony.PreciseCallState) {
	b.post(telephony.EventPreciseCallStateChanged, phoneID, subID, "", state)
}

// NotifyOemHookRaw forwards raw OEM hook data.
func (b *Broker) NotifyOemHookRaw(phoneID, subID int, raw []byte) {
	b.post(telephony.EventOemHookRaw, phoneID, subID, "", slices.Clone(raw))
}

// NotifyVoiceActivationState reports the voice activation state.
func (b *Broker) NotifyVoiceActivationState(phoneID, subID int, state telephony.ActivationState) {
	b.post(telephony.EventVoiceActivationStateChanged, phoneID, subID, "", state)
}

// NotifyUserMobileDataState reports the user mobile data switch.
func (b *Broker) NotifyUserMobileDataState(phoneID, subID int, enabled bool) {
	b.post(telephony.EventUserMobileDataStateChanged, phoneID, subID, "", enabled)
}

// NotifyDisplayInfoChanged reports the displayed network type of phoneID.
func (b *Broker) NotifyDisplayInfoChanged(phoneID, subID int, info telephony.DisplayInfo) {
	b.post(telephony.EventDisplayInfoChanged, phoneID, subID, "", info)
}

// NotifyRadioPowerStateChanged reports the radio power state of phoneID.
// Each active slot starts at RadioPowerUnavailable.
func (b *Broker) NotifyRadioPowerStateChanged(phoneID, subID int, state telephony.RadioPowerState) {
	b.post(telephony.EventRadioPowerStateChanged, phoneID, subID, "", state)
}

// NotifyCallAttributes reports the precise call state with call quality.
func (b *Broker) NotifyCallAttributes(phoneID, subID int, attributes telephony.CallAttributes) {
	b.post(telephony.EventCallAttributesChanged, phoneID, subID, "", attributes)
}

// NotifyDisconnectCause reports why the last call ended.
func (b *Broker) NotifyDisconnectCause(phoneID, subID int, cause telephony.DisconnectCause) {
	b.post(telephony.EventCallDisconnectCauseChanged, phoneID, subID, "", cause)
}

// NotifyEmergencyNumberList reports the dialable emergency numbers.
func (b *Broker) NotifyEmergencyNumberList(phoneID, subID int, numbers []telephony.EmergencyNumber) {
	b.post(telephony.EventEmergencyNumberListChanged, phoneID, subID, "", slices.Clone(numbers))
}

// NotifyOutgoingEmergencyCall reports an emergency call being placed.
func (b *Broker) NotifyOutgoingEmergencyCall(phoneID, subID int, number telephony.EmergencyNumber) {
	b.post(telephony.EventOutgoingEmergencyCall, phoneID, subID, "", number)
}

// NotifyOutgoingEmergencySms reports an emergency SMS being sent.
func (b *Broker) NotifyOutgoingEmergencySms(phoneID, subID int, number telephony.EmergencyNumber) {
	b.post(telephony.EventOutgoingEmergencySms, phoneID, subID, "", number)
}

// NotifyImsDisconnectCause reports why an IMS call was disconnected.
func (b *Broker) NotifyImsDisconnectCause(phoneID, subID int, reason telephony.ImsReasonInfo) {
	b.post(telephony.EventImsCallDisconnectCauseChanged, phoneID, subID, "", reason)
}

// NotifyRegistrationFailed reports a rejected network registration.
func (b *Broker) NotifyRegistrationFailed(phoneID, subID int, failure telephony.RegistrationFailure) {
	b.post(telephony.EventRegistrationFailure, phoneID, subID, "", failure)
}

// NotifyBarringInfo reports which services are barred.
func (b *Broker) NotifyBarringInfo(phoneID, subID int, info telephony.BarringInfo) {
	b.post(telephony.EventBarringInfoChanged, phoneID, subID, "", telephony.BarringInfo{Barred: maps.Clone(info.Barred)})
}

// NotifyPhysicalChannelConfig reports the active physical channels.
func (b *Broker) NotifyPhysicalChannelConfig(phoneID, subID int, configs []telephony.PhysicalChannelConfig) {
	b.post(telephony.EventPhysicalChannelConfigChanged, phoneID, subID, "", slices.Clone(configs))
}

// NotifyDataEnabled reports whether mobile data is enabled and why.
func (b *Broker) NotifyDataEnabled(phoneID, subID int, state telephony.DataEnabled) {
	b.post(telephony.EventDataEnabledChanged, phoneID, subID, "", state)
}

// NotifyAllowedNetworkTypesChanged reports the allowed network types for one reason.
func (b *Broker) NotifyAllowedNetworkTypesChanged(phoneID, subID int, allowed telephony.AllowedNetworkTypes) {
	b.post(telephony.EventAllowedNetworkTypesChanged, phoneID, subID, "", allowed)
}

// NotifyLinkCapacityEstimateChanged reports link capacity estimates of phoneID.
func (b *Broker) NotifyLinkCapacityEstimateChanged(phoneID, subID int, estimates []telephony.LinkCapacityEstimate) {
	b.post(telephony.EventLinkCapacityEstimateChanged, phoneID, subID, "", slices.Clone(estimates))
}

// NotifyDataConnectionForSubscriber reports the state of one data
// connection. Each (transport, APN name, APN types) is cached separately.
func (b *Broker) NotifyDataConnectionForSubscriber(phoneID, subID int, state telephony.PreciseDataConnectionState) {
	b.post(telephony.EventPreciseDataConnectionStateChanged, phoneID, subID, state.Key(), state)
}

// NotifySrvccStateChanged reports the SRVCC state of subID. It is dropped
// while subID is not bound to an active slot.
func (b *Broker) NotifySrvccStateChanged(subID int, state telephony.SrvccState) {
	b.post(telephony.EventSrvccStateChanged, telephony.InvalidPhoneID, subID, "", state)
}

// NotifyPhoneCapabilityChanged reports the device modem capability.
func (b *Broker) NotifyPhoneCapabilityChanged(capability telephony.PhoneCapability) {
	b.post(telephony.EventPhoneCapabilityChanged, telephony.InvalidPhoneID, telephony.InvalidSubscriptionID, "", capability)
}

// NotifyActiveDataSubIDChanged reports the subscription currently used for data.
func (b *Broker) NotifyActiveDataSubIDChanged(subID int) {
	b.post(telephony.EventActiveDataSubscriptionIDChanged, telephony.InvalidPhoneID, telephony.InvalidSubscriptionID, "", subID)
}

var _ registry.Registry = (*Broker)(nil)
