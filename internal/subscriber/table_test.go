package subscriber

import (
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

var testCaller = permission.Caller{Package: "com.example.observer"}

func handles(seq func(func(*Subscription) bool)) []registry.Handle {
	var out []registry.Handle
	for sub := range seq {
		out = append(out, sub.Handle)
	}
	return out
}

func TestTable_Upsert(t *testing.T) {
	table := NewTable()
	cb := registry.NewCallback()

	table.Upsert(New(cb, testCaller, 1, telephony.NewEventSet(telephony.EventDisplayInfoChanged)))
	require.Equal(t, 1, table.Len())

	sub, ok := table.Get(cb.Handle())
	require.True(t, ok)
	assert.Equal(t, 1, sub.Target)
	assert.Same(t, cb, sub.Callback())
}

func TestTable_Upsert_ReplacesInPlace(t *testing.T) {
	table := NewTable()
	first := registry.NewCallback()
	second := registry.NewCallback()
	events := telephony.NewEventSet(telephony.EventRadioPowerStateChanged)

	table.Upsert(New(first, testCaller, 0, events))
	table.Upsert(New(second, testCaller, 0, events))

	replaced := telephony.NewEventSet(telephony.EventDisplayInfoChanged)
	table.Upsert(New(first, testCaller, telephony.DefaultSubscriptionID, replaced))

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []registry.Handle{first.Handle(), second.Handle()}, handles(table.All()),
		"re-listen keeps the original position")

	sub, _ := table.Get(first.Handle())
	assert.Equal(t, replaced, sub.Events)
	assert.True(t, sub.TargetsDefault())
}

func TestTable_Upsert_EmptyEventsRemoves(t *testing.T) {
	table := NewTable()
	cb := registry.NewCallback()

	table.Upsert(New(cb, testCaller, 0, telephony.NewEventSet(telephony.EventCallStateChanged)))
	table.Upsert(New(cb, testCaller, 0, 0))

	assert.Zero(t, table.Len())
	_, ok := table.Get(cb.Handle())
	assert.False(t, ok)
}

func TestTable_Remove(t *testing.T) {
	table := NewTable()
	cb := registry.NewCallback()

	assert.False(t, table.Remove(cb.Handle()))

	table.Upsert(New(cb, testCaller, 0, telephony.NewEventSet(telephony.EventCallStateChanged)))
	assert.True(t, table.Remove(cb.Handle()))
	assert.False(t, table.Remove(cb.Handle()))
	assert.Zero(t, table.Len())
}

func TestTable_Matching(t *testing.T) {
	table := NewTable()
	a := registry.NewCallback()
	b := registry.NewCallback()
	c := registry.NewCallback()

	table.Upsert(New(a, testCaller, 0, telephony.NewEventSet(telephony.EventDisplayInfoChanged)))
	table.Upsert(New(b, testCaller, 1, telephony.NewEventSet(telephony.EventDisplayInfoChanged, telephony.EventCallStateChanged)))
	table.Upsert(New(c, testCaller, 0, telephony.NewEventSet(telephony.EventCallStateChanged)))

	assert.Equal(t, []registry.Handle{a.Handle(), b.Handle()},
		handles(table.Matching(telephony.EventDisplayInfoChanged, nil)))

	onSubZero := func(s *Subscription) bool { return s.Target == 0 }
	assert.Equal(t, []registry.Handle{c.Handle()},
		handles(table.Matching(telephony.EventCallStateChanged, onSubZero)))

	// Restartable: a second pass yields the same sequence
	seq := table.Matching(telephony.EventDisplayInfoChanged, nil)
	assert.Equal(t, handles(seq), handles(seq))

	// Early stop
	for sub := range table.Matching(telephony.EventDisplayInfoChanged, nil) {
		assert.Equal(t, a.Handle(), sub.Handle)
		break
	}

	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
	runtime.KeepAlive(c)
}

func TestTable_CollectedCallbacksArePruned(t *testing.T) {
	table := NewTable()
	kept := registry.NewCallback()
	events := telephony.NewEventSet(telephony.EventRadioPowerStateChanged)

	table.Upsert(New(kept, testCaller, 0, events))
	func() {
		dropped := registry.NewCallback()
		table.Upsert(New(dropped, testCaller, 0, events))
	}()
	require.Equal(t, 2, table.Len())

	require.Eventually(t, func() bool {
		runtime.GC()
		return slices.ContainsFunc(slices.Collect(table.All()), func(s *Subscription) bool {
			return s.Callback() == nil
		})
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []registry.Handle{kept.Handle()},
		handles(table.Matching(telephony.EventRadioPowerStateChanged, nil)))
	assert.Equal(t, 1, table.Len(), "dead registration removed after iteration")
	assert.Zero(t, table.Prune())

	runtime.KeepAlive(kept)
}
