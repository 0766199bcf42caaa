package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

func TestBroker_Snapshot(t *testing.T) {
	b := newTestBroker(t, permission.AllowAll)

	rec := newRecorder(telephony.EventDisplayInfoChanged)
	listen(t, b, telephony.DefaultSubscriptionID, rec, false, telephony.EventDisplayInfoChanged)
	b.NotifyDisplayInfoChanged(1, subB, telephony.DisplayInfo{NetworkType: telephony.NetworkTypeNR})
	b.NotifyPhoneCapabilityChanged(telephony.PhoneCapability{MaxActiveVoiceSubscriptions: 1})
	drain(t, b)

	snap, err := b.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.ActiveSlots)
	assert.Equal(t, subA, snap.DefaultSubscriptionID)
	assert.Equal(t, 0, snap.DefaultPhoneID)
	assert.Equal(t, map[int]int{subA: 0, subB: 1}, snap.Bindings)

	// Sorted by kind, then scope
	require.Len(t, snap.Records, 4)
	assert.Equal(t, telephony.EventDisplayInfoChanged, snap.Records[0].Kind)
	assert.Equal(t, "phone/1", snap.Records[0].Scope)
	assert.Equal(t, telephony.EventPhoneCapabilityChanged, snap.Records[1].Kind)
	assert.Equal(t, "global", snap.Records[1].Scope)
	assert.Equal(t, telephony.EventRadioPowerStateChanged, snap.Records[2].Kind)
	assert.Equal(t, "phone/0", snap.Records[2].Scope)
	assert.Equal(t, "phone/1", snap.Records[3].Scope)

	require.Len(t, snap.Subscriptions, 1)
	assert.Equal(t, rec.cb.Handle().String(), snap.Subscriptions[0].Handle)
	assert.Equal(t, telephony.DefaultSubscriptionID, snap.Subscriptions[0].Target)
	assert.True(t, snap.Subscriptions[0].Alive)
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	b := newTestBroker(t, permission.AllowAll)

	pdcs := telephony.PreciseDataConnectionState{
		TransportType: telephony.TransportTypeWWAN,
		State:         telephony.DataConnected,
		Apn:           telephony.ApnSetting{Name: "ims", Types: telephony.ApnTypeIMS},
	}
	b.NotifyDataConnectionForSubscriber(0, subA, pdcs)
	b.NotifyOemHookRaw(0, subA, []byte{0x01, 0x02})
	drain(t, b)

	snap, err := b.Snapshot(context.Background())
	require.NoError(t, err)

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded struct {
		ActiveSlots float64 `json:"activeSlots"`
		Bindings    map[string]float64
		Records     []struct {
			Kind    string `json:"kind"`
			Scope   string `json:"scope"`
			Item    string `json:"item"`
			Payload any    `json:"payload"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, float64(2), decoded.ActiveSlots)
	assert.Equal(t, map[string]float64{"10": 0, "20": 1}, decoded.Bindings)

	var found bool
	for _, r := range decoded.Records {
		if r.Kind != "precise-data-connection-state" {
			continue
		}
		found = true
		assert.Equal(t, "phone/0", r.Scope)
		assert.Equal(t, pdcs.Key(), r.Item)
		payload, ok := r.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ims", payload["apn"].(map[string]any)["name"])
	}
	assert.True(t, found)
}
