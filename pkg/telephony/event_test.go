package telephony

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventSet_Membership tests building and querying event sets
func TestEventSet_Membership(t *testing.T) {
	set := NewEventSet(EventRadioPowerStateChanged, EventSrvccStateChanged, EventKind(63))

	assert.True(t, set.Has(EventRadioPowerStateChanged))
	assert.True(t, set.Has(EventSrvccStateChanged))
	assert.False(t, set.Has(EventDisplayInfoChanged))
	assert.False(t, set.Has(EventKind(63)), "unknown kinds are never added")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []EventKind{EventSrvccStateChanged, EventRadioPowerStateChanged}, set.Kinds())
	assert.Equal(t, "srvcc-state,radio-power-state", set.String())
}

// TestEventSet_Known tests masking of raw bits that are not in the catalog
func TestEventSet_Known(t *testing.T) {
	raw := EventSet(1<<uint(EventDisplayInfoChanged) | 1<<2 | 1<<40)

	known := raw.Known()
	assert.Equal(t, NewEventSet(EventDisplayInfoChanged), known)
	assert.True(t, EventSet(0).Empty())
	assert.Empty(t, EventSet(0).Kinds())
}

// TestEventKind_Catalog tests catalog lookups
func TestEventKind_Catalog(t *testing.T) {
	kinds := AllEventKinds()
	require.NotEmpty(t, kinds)
	for i := 1; i < len(kinds); i++ {
		assert.Less(t, kinds[i-1], kinds[i], "catalog must be in enumeration order")
	}

	assert.Equal(t, ScopeGlobal, EventPhoneCapabilityChanged.Scope())
	assert.Equal(t, ScopeGlobal, EventActiveDataSubscriptionIDChanged.Scope())
	assert.Equal(t, ScopeSubscription, EventSrvccStateChanged.Scope())
	assert.Equal(t, ScopePhone, EventRadioPowerStateChanged.Scope())
	assert.True(t, EventPreciseDataConnectionStateChanged.MultiValued())
	assert.False(t, EventDisplayInfoChanged.MultiValued())
	assert.False(t, EventKind(2).Valid())
	assert.Equal(t, "event(2)", EventKind(2).String())
}

// TestParseEventKind tests name and id parsing
func TestParseEventKind(t *testing.T) {
	kind, err := ParseEventKind("Radio-Power-State")
	require.NoError(t, err)
	assert.Equal(t, EventRadioPowerStateChanged, kind)

	kind, err = ParseEventKind("19")
	require.NoError(t, err)
	assert.Equal(t, EventDisplayInfoChanged, kind)

	_, err = ParseEventKind("cell-location")
	assert.ErrorIs(t, err, ErrUnknownEventKind)

	_, err = ParseEventKind("2")
	assert.ErrorIs(t, err, ErrUnknownEventKind)
}

// TestPreciseDataConnectionState_Key tests the per-APN item key
func TestPreciseDataConnectionState_Key(t *testing.T) {
	def := PreciseDataConnectionState{
		TransportType: TransportTypeWWAN,
		ID:            1,
		Apn:           ApnSetting{Name: "default", Types: ApnTypeDefault},
	}
	ims := def
	ims.ID = 2
	ims.Apn = ApnSetting{Name: "ims", Types: ApnTypeIMS}

	assert.NotEqual(t, def.Key(), ims.Key())

	reconnected := def
	reconnected.ID = 7
	reconnected.State = DataConnected
	assert.Equal(t, def.Key(), reconnected.Key(), "key ignores connection id and state")
}

// TestParseRadioPowerState tests radio power parsing
func TestParseRadioPowerState(t *testing.T) {
	state, err := ParseRadioPowerState("ON")
	require.NoError(t, err)
	assert.Equal(t, RadioPowerOn, state)
	assert.Equal(t, "unavailable", RadioPowerUnavailable.String())

	_, err = ParseRadioPowerState("sleeping")
	assert.ErrorIs(t, err, ErrUnknownRadioPowerState)
}
