package telephony

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"
)

// EventKind identifies one entry of the fixed event catalog.
// Values follow the telephony callback event ids.
type EventKind int

const (
	EventServiceStateChanged               EventKind = 1
	EventMessageWaitingIndicatorChanged    EventKind = 3
	EventCallForwardingIndicatorChanged    EventKind = 4
	EventCallStateChanged                  EventKind = 6
	EventDataConnectionStateChanged        EventKind = 7
	EventDataActivityChanged               EventKind = 8
	EventSignalStrengthsChanged            EventKind = 9
	EventPreciseCallStateChanged           EventKind = 11
	EventPreciseDataConnectionStateChanged EventKind = 12
	EventSrvccStateChanged                 EventKind = 14
	EventOemHookRaw                        EventKind = 15
	EventVoiceActivationStateChanged       EventKind = 16
	EventUserMobileDataStateChanged        EventKind = 18
	EventDisplayInfoChanged                EventKind = 19
	EventPhoneCapabilityChanged            EventKind = 20
	EventActiveDataSubscriptionIDChanged   EventKind = 21
	EventRadioPowerStateChanged            EventKind = 22
	EventCallAttributesChanged             EventKind = 23
	EventCallDisconnectCauseChanged        EventKind = 24
	EventEmergencyNumberListChanged        EventKind = 25
	EventOutgoingEmergencyCall             EventKind = 26
	EventOutgoingEmergencySms              EventKind = 27
	EventImsCallDisconnectCauseChanged     EventKind = 28
	EventRegistrationFailure               EventKind = 29
	EventBarringInfoChanged                EventKind = 30
	EventPhysicalChannelConfigChanged      EventKind = 31
	EventDataEnabledChanged                EventKind = 32
	EventAllowedNetworkTypesChanged        EventKind = 33
	EventLinkCapacityEstimateChanged       EventKind = 34
)

// Scope describes how an event kind is addressed.
type Scope int

const (
	// ScopePhone events are produced by one modem slot and cached per phone id.
	ScopePhone Scope = iota

	// ScopeSubscription events are addressed by subscription id only; the
	// registry maps the subscription to its slot before caching.
	ScopeSubscription

	// ScopeGlobal events are device-wide and reach every listener of the kind.
	ScopeGlobal
)

// String returns the scope name
func (s Scope) String() string {
	switch s {
	case ScopePhone:
		return "phone"
	case ScopeSubscription:
		return "subscription"
	case ScopeGlobal:
		return "global"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

type descriptor struct {
	name        string
	scope       Scope
	multiValued bool
}

var catalog = map[EventKind]descriptor{
	EventServiceStateChanged:               {name: "service-state", scope: ScopePhone},
	EventMessageWaitingIndicatorChanged:    {name: "message-waiting", scope: ScopePhone},
	EventCallForwardingIndicatorChanged:    {name: "call-forwarding", scope: ScopePhone},
	EventCallStateChanged:                  {name: "call-state", scope: ScopePhone},
	EventDataConnectionStateChanged:        {name: "data-connection-state", scope: ScopePhone},
	EventDataActivityChanged:               {name: "data-activity", scope: ScopePhone},
	EventSignalStrengthsChanged:            {name: "signal-strengths", scope: ScopePhone},
	EventPreciseCallStateChanged:           {name: "precise-call-state", scope: ScopePhone},
	EventPreciseDataConnectionStateChanged: {name: "precise-data-connection-state", scope: ScopePhone, multiValued: true},
	EventSrvccStateChanged:                 {name: "srvcc-state", scope: ScopeSubscription},
	EventOemHookRaw:                        {name: "oem-hook-raw", scope: ScopePhone},
	EventVoiceActivationStateChanged:       {name: "voice-activation-state", scope: ScopePhone},
	EventUserMobileDataStateChanged:        {name: "user-mobile-data-state", scope: ScopePhone},
	EventDisplayInfoChanged:                {name: "display-info", scope: ScopePhone},
	EventPhoneCapabilityChanged:            {name: "phone-capability", scope: ScopeGlobal},
	EventActiveDataSubscriptionIDChanged:   {name: "active-data-subscription-id", scope: ScopeGlobal},
	EventRadioPowerStateChanged:            {name: "radio-power-state", scope: ScopePhone},
	EventCallAttributesChanged:             {name: "call-attributes", scope: ScopePhone},
	EventCallDisconnectCauseChanged:        {name: "call-disconnect-cause", scope: ScopePhone},
	EventEmergencyNumberListChanged:        {name: "emergency-number-list", scope: ScopePhone},
	EventOutgoingEmergencyCall:             {name: "outgoing-emergency-call", scope: ScopePhone},
	EventOutgoingEmergencySms:              {name: "outgoing-emergency-sms", scope: ScopePhone},
	EventImsCallDisconnectCauseChanged:     {name: "ims-call-disconnect-cause", scope: ScopePhone},
	EventRegistrationFailure:               {name: "registration-failure", scope: ScopePhone},
	EventBarringInfoChanged:                {name: "barring-info", scope: ScopePhone},
	EventPhysicalChannelConfigChanged:      {name: "physical-channel-config", scope: ScopePhone},
	EventDataEnabledChanged:                {name: "data-enabled", scope: ScopePhone},
	EventAllowedNetworkTypesChanged:        {name: "allowed-network-types", scope: ScopePhone},
	EventLinkCapacityEstimateChanged:       {name: "link-capacity-estimate", scope: ScopePhone},
}

// AllEventKinds returns every catalog entry in enumeration order.
func AllEventKinds() []EventKind {
	kinds := make([]EventKind, 0, len(catalog))
	for kind := range catalog {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// Valid reports whether the kind belongs to the catalog.
func (k EventKind) Valid() bool {
	_, ok := catalog[k]
	return ok
}

// String returns the kebab-case catalog name of the kind
func (k EventKind) String() string {
	if d, ok := catalog[k]; ok {
		return d.name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Scope returns how the kind is addressed. Unknown kinds report ScopePhone.
func (k EventKind) Scope() Scope {
	return catalog[k].scope
}

// MultiValued reports whether the kind keeps several live values per scope,
// one per item key (e.g. one precise data connection state per APN).
func (k EventKind) MultiValued() bool {
	return catalog[k].multiValued
}

// ParseEventKind resolves a catalog name (as returned by String) or a numeric id.
func ParseEventKind(s string) (EventKind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for kind, d := range catalog {
		if d.name == s {
			return kind, nil
		}
	}
	var id int
	if _, err := fmt.Sscanf(s, "%d", &id); err == nil && EventKind(id).Valid() {
		return EventKind(id), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
}

// EventSet is a set of event kinds. The zero value is the empty set.
type EventSet uint64

// NewEventSet builds a set from the given kinds; unknown kinds are ignored.
func NewEventSet(kinds ...EventKind) EventSet {
	var s EventSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns a copy of the set including kind.
func (s EventSet) With(kind EventKind) EventSet {
	if !kind.Valid() {
		return s
	}
	return s | 1<<uint(kind)
}

// Has reports whether kind is in the set.
func (s EventSet) Has(kind EventKind) bool {
	if kind <= 0 || kind >= 64 {
		return false
	}
	return s&(1<<uint(kind)) != 0
}

// Empty reports whether the set has no members.
func (s EventSet) Empty() bool {
	return s == 0
}

// Len returns the number of kinds in the set.
func (s EventSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Kinds returns the members in enumeration order.
func (s EventSet) Kinds() []EventKind {
	kinds := make([]EventKind, 0, s.Len())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		kinds = append(kinds, EventKind(bits.TrailingZeros64(rest)))
	}
	return kinds
}

// String renders the set as a comma-joined list of kind names.
func (s EventSet) String() string {
	kinds := s.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}

// Known returns the subset of s that belongs to the catalog.
func (s EventSet) Known() EventSet {
	var known EventSet
	for _, k := range s.Kinds() {
		known = known.With(k)
	}
	return known
}
