package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

func TestCallback_TypedHandlers(t *testing.T) {
	var got []telephony.RadioPowerState
	cb := NewCallback().OnRadioPowerStateChanged(func(state telephony.RadioPowerState) {
		got = append(got, state)
	})

	assert.True(t, cb.Handles(telephony.EventRadioPowerStateChanged))
	assert.False(t, cb.Handles(telephony.EventDisplayInfoChanged))

	assert.True(t, cb.Invoke(telephony.EventRadioPowerStateChanged, telephony.RadioPowerOn))
	assert.False(t, cb.Invoke(telephony.EventDisplayInfoChanged, telephony.DisplayInfo{}))

	// Mismatched payload types are swallowed by the typed adapter
	assert.True(t, cb.Invoke(telephony.EventRadioPowerStateChanged, "on"))

	assert.Equal(t, []telephony.RadioPowerState{telephony.RadioPowerOn}, got)
}

func TestCallback_Capabilities(t *testing.T) {
	cb := NewCallback().
		OnDisplayInfoChanged(func(telephony.DisplayInfo) {}).
		OnLinkCapacityEstimateChanged(func([]telephony.LinkCapacityEstimate) {}).
		On(telephony.EventKind(2), func(any) {})

	want := telephony.NewEventSet(telephony.EventDisplayInfoChanged, telephony.EventLinkCapacityEstimateChanged)
	assert.Equal(t, want, cb.Capabilities())

	cb.OnDisplayInfoChanged(nil)
	assert.False(t, cb.Handles(telephony.EventDisplayInfoChanged))
}

func TestCallback_UntypedHandler(t *testing.T) {
	var payloads []any
	cb := NewCallback().On(telephony.EventPhoneCapabilityChanged, func(p any) {
		payloads = append(payloads, p)
	})

	capability := telephony.PhoneCapability{MaxActiveVoiceSubscriptions: 1, MaxActiveDataSubscriptions: 1}
	require.True(t, cb.Invoke(telephony.EventPhoneCapabilityChanged, capability))
	assert.Equal(t, []any{capability}, payloads)
}

func TestHandle(t *testing.T) {
	a := NewCallback()
	b := NewCallback()

	assert.NotEqual(t, a.Handle(), b.Handle())
	assert.False(t, a.Handle().IsZero())
	assert.True(t, Handle{}.IsZero())
	assert.Len(t, a.Handle().String(), 36)
}
