package permission

import (
	"fmt"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// requirements maps each event kind to the tier a listener must hold.
// Kinds absent from the table need no permission.
var requirements = map[telephony.EventKind]permission.Tier{
	telephony.EventMessageWaitingIndicatorChanged:  permission.TierPhoneState,
	telephony.EventCallForwardingIndicatorChanged:  permission.TierPhoneState,
	telephony.EventEmergencyNumberListChanged:      permission.TierPhoneState,
	telephony.EventActiveDataSubscriptionIDChanged: permission.TierPhoneState,

	telephony.EventPreciseCallStateChanged:           permission.TierPrecisePhoneState,
	telephony.EventPreciseDataConnectionStateChanged: permission.TierPrecisePhoneState,
	telephony.EventCallDisconnectCauseChanged:        permission.TierPrecisePhoneState,
	telephony.EventCallAttributesChanged:             permission.TierPrecisePhoneState,
	telephony.EventImsCallDisconnectCauseChanged:     permission.TierPrecisePhoneState,
	telephony.EventRegistrationFailure:               permission.TierPrecisePhoneState,
	telephony.EventBarringInfoChanged:                permission.TierPrecisePhoneState,
	telephony.EventPhysicalChannelConfigChanged:      permission.TierPrecisePhoneState,
	telephony.EventDataEnabledChanged:                permission.TierPrecisePhoneState,

	telephony.EventSrvccStateChanged:           permission.TierPrivilegedPhoneState,
	telephony.EventOemHookRaw:                  permission.TierPrivilegedPhoneState,
	telephony.EventRadioPowerStateChanged:      permission.TierPrivilegedPhoneState,
	telephony.EventVoiceActivationStateChanged: permission.TierPrivilegedPhoneState,
	telephony.EventAllowedNetworkTypesChanged:  permission.TierPrivilegedPhoneState,
	telephony.EventLinkCapacityEstimateChanged: permission.TierPrivilegedPhoneState,

	telephony.EventOutgoingEmergencyCall: permission.TierActiveEmergencySession,
	telephony.EventOutgoingEmergencySms:  permission.TierActiveEmergencySession,
}

// RequiredTier returns the tier guarding kind. Unknown kinds need none.
func RequiredTier(kind telephony.EventKind) permission.Tier {
	return requirements[kind]
}

// Policy evaluates listen requests against an external authority.
// It holds no grant state of its own and is safe for concurrent use.
type Policy struct {
	authority permission.Authority
}

// NewPolicy creates a policy backed by authority.
func NewPolicy(authority permission.Authority) *Policy {
	return &Policy{authority: authority}
}

// Check verifies that caller holds every tier required by events.
// The authority is asked once per distinct tier; the first refusal rejects
// the whole request.
func (p *Policy) Check(caller permission.Caller, events telephony.EventSet) error {
	checked := make(map[permission.Tier]bool)

	for _, kind := range events.Kinds() {
		tier := RequiredTier(kind)
		if tier == permission.TierNone || checked[tier] {
			continue
		}
		if p.authority == nil || !p.authority.IsAllowed(caller, tier) {
			return fmt.Errorf("%w: %s requires %s for %s", permission.ErrDenied, caller, tier, kind)
		}
		checked[tier] = true
	}

	return nil
}
