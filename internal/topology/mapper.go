package topology

import (
	"errors"
	"maps"
	"slices"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// ErrNegativeSlotCount is returned when a topology change reports fewer than zero slots
var ErrNegativeSlotCount = errors.New("active slot count cannot be negative")

// Target is a listener's resolved address: the subscription it follows and
// the phone that subscription currently lives on.
type Target struct {
	SubscriptionID int
	PhoneID        int
}

// Mapper tracks active modem slots and which subscription is bound to which
// slot. It is not safe for concurrent use: the registry owns it and only
// touches it from its worker goroutine.
type Mapper struct {
	activeSlots  int
	subToSlot    map[int]int
	defaultSubID int
	defaultPhone int
}

// NewMapper creates a mapper with activeSlots slots and no bound subscriptions.
func NewMapper(activeSlots int) *Mapper {
	if activeSlots < 0 {
		activeSlots = 0
	}
	return &Mapper{
		activeSlots:  activeSlots,
		subToSlot:    make(map[int]int),
		defaultSubID: telephony.InvalidSubscriptionID,
		defaultPhone: telephony.InvalidPhoneID,
	}
}

// ActiveSlots returns the number of active modem slots.
func (m *Mapper) ActiveSlots() int {
	return m.activeSlots
}

// ApplyTopologyChange sets the number of active slots. Bindings are kept;
// those pointing past the new range simply become invalid until it widens.
// It returns the previous slot count.
func (m *Mapper) ApplyTopologyChange(activeSlots int) (int, error) {
	if activeSlots < 0 {
		return m.activeSlots, ErrNegativeSlotCount
	}
	previous := m.activeSlots
	m.activeSlots = activeSlots
	return previous, nil
}

// IsValidPhone reports whether phoneID addresses an active slot.
func (m *Mapper) IsValidPhone(phoneID int) bool {
	return phoneID >= 0 && phoneID < m.activeSlots
}

// BindSubscription records that subID lives on slot.
func (m *Mapper) BindSubscription(subID, slot int) {
	if !telephony.ValidSubscriptionID(subID) || slot < 0 {
		return
	}
	m.subToSlot[subID] = slot
}

// UnbindSubscription forgets the slot of subID.
func (m *Mapper) UnbindSubscription(subID int) {
	delete(m.subToSlot, subID)
}

// PhoneForSubscription returns the active slot subID is bound to.
func (m *Mapper) PhoneForSubscription(subID int) (int, bool) {
	if subID == telephony.DefaultSubscriptionID {
		subID = m.defaultSubID
	}
	slot, ok := m.subToSlot[subID]
	if !ok || !m.IsValidPhone(slot) {
		return telephony.InvalidPhoneID, false
	}
	return slot, true
}

// SetDefault records the current default subscription and its slot, and
// binds the two. It returns the previous default phone.
func (m *Mapper) SetDefault(subID, slot int) int {
	previous := m.defaultPhone
	m.defaultSubID = subID
	m.defaultPhone = slot
	m.BindSubscription(subID, slot)
	return previous
}

// Default returns the current default subscription and phone.
func (m *Mapper) Default() (subID, phoneID int) {
	return m.defaultSubID, m.defaultPhone
}

// Resolve turns a listener target into a concrete subscription and phone,
// reading the current default when target is DefaultSubscriptionID.
// ok is false when the phone is not an active slot.
func (m *Mapper) Resolve(target int) (Target, bool) {
	subID := target
	if target == telephony.DefaultSubscriptionID {
		subID = m.defaultSubID
	}

	phoneID, ok := m.PhoneForSubscription(subID)
	if !ok && target == telephony.DefaultSubscriptionID && m.IsValidPhone(m.defaultPhone) {
		phoneID, ok = m.defaultPhone, true
	}
	return Target{SubscriptionID: subID, PhoneID: phoneID}, ok
}

// Bindings returns a copy of the subscription to slot table.
func (m *Mapper) Bindings() map[int]int {
	return maps.Clone(m.subToSlot)
}

// BoundSubscriptions returns bound subscription ids in ascending order.
func (m *Mapper) BoundSubscriptions() []int {
	return slices.Sorted(maps.Keys(m.subToSlot))
}
