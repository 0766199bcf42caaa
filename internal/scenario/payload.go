package scenario

import (
	"encoding/json"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/rmacdonaldsmith/phonestate-go/internal/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// notifier decodes a step value and issues the matching notification.
type notifier func(b *registry.Broker, phoneID, subID int, value *yaml.Node) error

func typed[T any](notify func(b *registry.Broker, phoneID, subID int, v T)) notifier {
	return func(b *registry.Broker, phoneID, subID int, value *yaml.Node) error {
		var v T
		if err := decodeValue(value, &v); err != nil {
			return err
		}
		notify(b, phoneID, subID, v)
		return nil
	}
}

var notifiers = map[telephony.EventKind]notifier{
	telephony.EventServiceStateChanged:               typed((*registry.Broker).NotifyServiceStateChanged),
	telephony.EventMessageWaitingIndicatorChanged:    typed((*registry.Broker).NotifyMessageWaitingChanged),
	telephony.EventCallForwardingIndicatorChanged:    typed((*registry.Broker).NotifyCallForwardingChanged),
	telephony.EventCallStateChanged:                  typed((*registry.Broker).NotifyCallState),
	telephony.EventDataConnectionStateChanged:        typed((*registry.Broker).NotifyDataConnectionState),
	telephony.EventDataActivityChanged:               typed((*registry.Broker).NotifyDataActivity),
	telephony.EventSignalStrengthsChanged:            typed((*registry.Broker).NotifySignalStrength),
	telephony.EventPreciseCallStateChanged:           typed((*registry.Broker).NotifyPreciseCallState),
	telephony.EventPreciseDataConnectionStateChanged: typed((*registry.Broker).NotifyDataConnectionForSubscriber),
	telephony.EventSrvccStateChanged: typed(func(b *registry.Broker, _, subID int, state telephony.SrvccState) {
		b.NotifySrvccStateChanged(subID, state)
	}),
	telephony.EventOemHookRaw:                  typed((*registry.Broker).NotifyOemHookRaw),
	telephony.EventVoiceActivationStateChanged: typed((*registry.Broker).NotifyVoiceActivationState),
	telephony.EventUserMobileDataStateChanged:  typed((*registry.Broker).NotifyUserMobileDataState),
	telephony.EventDisplayInfoChanged:          typed((*registry.Broker).NotifyDisplayInfoChanged),
	telephony.EventPhoneCapabilityChanged: typed(func(b *registry.Broker, _, _ int, capability telephony.PhoneCapability) {
		b.NotifyPhoneCapabilityChanged(capability)
	}),
	telephony.EventActiveDataSubscriptionIDChanged: typed(func(b *registry.Broker, _, _ int, subID int) {
		b.NotifyActiveDataSubIDChanged(subID)
	}),
	telephony.EventRadioPowerStateChanged:        notifyRadioPower,
	telephony.EventCallAttributesChanged:         typed((*registry.Broker).NotifyCallAttributes),
	telephony.EventCallDisconnectCauseChanged:    typed((*registry.Broker).NotifyDisconnectCause),
	telephony.EventEmergencyNumberListChanged:    typed((*registry.Broker).NotifyEmergencyNumberList),
	telephony.EventOutgoingEmergencyCall:         typed((*registry.Broker).NotifyOutgoingEmergencyCall),
	telephony.EventOutgoingEmergencySms:          typed((*registry.Broker).NotifyOutgoingEmergencySms),
	telephony.EventImsCallDisconnectCauseChanged: typed((*registry.Broker).NotifyImsDisconnectCause),
	telephony.EventRegistrationFailure:           typed((*registry.Broker).NotifyRegistrationFailed),
	telephony.EventBarringInfoChanged:            typed((*registry.Broker).NotifyBarringInfo),
	telephony.EventPhysicalChannelConfigChanged:  typed((*registry.Broker).NotifyPhysicalChannelConfig),
	telephony.EventDataEnabledChanged:            typed((*registry.Broker).NotifyDataEnabled),
	telephony.EventAllowedNetworkTypesChanged:    typed((*registry.Broker).NotifyAllowedNetworkTypesChanged),
	telephony.EventLinkCapacityEstimateChanged:   typed((*registry.Broker).NotifyLinkCapacityEstimateChanged),
}

func notifyRadioPower(b *registry.Broker, phoneID, subID int, value *yaml.Node) error {
	state, err := decodeRadioPower(value)
	if err != nil {
		return err
	}
	b.NotifyRadioPowerStateChanged(phoneID, subID, state)
	return nil
}

// decodeRadioPower accepts "on", "off", "unavailable" or the numeric state.
func decodeRadioPower(value *yaml.Node) (telephony.RadioPowerState, error) {
	var n int
	if err := value.Decode(&n); err == nil {
		return telephony.RadioPowerState(n), nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return 0, fmt.Errorf("invalid radio power state: %w", err)
	}
	return telephony.ParseRadioPowerState(s)
}

// decodeValue converts a YAML value into target through its JSON form, so
// payload fields use the same camelCase names as everywhere else.
func decodeValue(value *yaml.Node, target any) error {
	if value == nil || value.Kind == 0 {
		return nil
	}
	var raw any
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("invalid value for %T: %w", target, err)
	}
	return nil
}

// decodeLike decodes value into a new value of the same type as sample.
func decodeLike(value *yaml.Node, sample any) (any, error) {
	if _, ok := sample.(telephony.RadioPowerState); ok {
		return decodeRadioPower(value)
	}
	ptr := reflect.New(reflect.TypeOf(sample))
	if err := decodeValue(value, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
