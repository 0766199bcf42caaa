package registry

import (
	"github.com/rmacdonaldsmith/phonestate-go/internal/statecache"
	"github.com/rmacdonaldsmith/phonestate-go/internal/subscriber"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// Everything in this file runs on the worker goroutine.

// post enqueues a notification.
func (b *Broker) post(kind telephony.EventKind, phoneID, subID int, item string, payload any) {
	if !b.enqueue(func() { b.notify(kind, phoneID, subID, item, payload) }) {
		b.stats.dropped.Add(1)
		b.logger.Debug("notification dropped", "kind", kind.String(), "reason", "registry closed")
	}
}

// notify resolves the scope of a notification, caches the payload and
// delivers it to matching observers when it changed.
func (b *Broker) notify(kind telephony.EventKind, phoneID, subID int, item string, payload any) {
	if !kind.Valid() {
		b.drop(kind, phoneID, subID, "unknown event kind")
		return
	}

	var scope statecache.Scope
	switch kind.Scope() {
	case telephony.ScopeGlobal:
		scope = statecache.GlobalScope()
	case telephony.ScopeSubscription:
		resolved, ok := b.mapper.PhoneForSubscription(subID)
		if !ok {
			b.drop(kind, phoneID, subID, "subscription not bound to an active slot")
			return
		}
		phoneID = resolved
		scope = statecache.PhoneScope(phoneID)
	default:
		if !b.mapper.IsValidPhone(phoneID) {
			b.drop(kind, phoneID, subID, "phone outside active slots")
			return
		}
		scope = statecache.PhoneScope(phoneID)
	}

	changed, err := b.cache.Put(kind, scope, item, payload)
	if err != nil {
		b.drop(kind, phoneID, subID, err.Error())
		return
	}
	if !changed {
		b.stats.deduplicated.Add(1)
		b.logger.Debug("unchanged notification ignored", "kind", kind.String(), "scope", scope.String(), "item", item)
		return
	}
	b.stats.notifications.Add(1)

	match := func(sub *subscriber.Subscription) bool {
		return b.matches(kind, sub, phoneID, subID)
	}
	for sub := range b.table.Matching(kind, match) {
		cb := sub.Callback()
		if cb == nil || !cb.Handles(kind) {
			continue
		}
		b.invoke(sub, cb, kind, payload, false)
	}
	b.stats.subscriptions.Store(int64(b.table.Len()))
}

// matches decides whether a notification for (phoneID, subID) reaches sub.
func (b *Broker) matches(kind telephony.EventKind, sub *subscriber.Subscription, phoneID, subID int) bool {
	if kind.Scope() == telephony.ScopeGlobal {
		return true
	}

	// Producers that do not know the subscription address the phone only
	if subID < 0 {
		target, ok := b.mapper.Resolve(sub.Target)
		return ok && target.PhoneID == phoneID
	}

	if sub.TargetsDefault() {
		defaultSubID, _ := b.mapper.Default()
		return defaultSubID == subID
	}
	return sub.Target == subID
}

func (b *Broker) drop(kind telephony.EventKind, phoneID, subID int, reason string) {
	b.stats.dropped.Add(1)
	b.logger.Debug("notification dropped",
		"kind", kind.String(),
		"phone", phoneID,
		"subscription", subID,
		"reason", reason)
}

// listen applies a registration and optionally replays cached values.
func (b *Broker) listen(sub *subscriber.Subscription, notifyNow bool) {
	defer func() { b.stats.subscriptions.Store(int64(b.table.Len())) }()

	if sub.Events.Empty() {
		if b.table.Remove(sub.Handle) {
			b.logger.Debug("subscription removed", "handle", sub.Handle.String(), "caller", sub.Caller.String())
		}
		return
	}

	b.table.Upsert(sub)
	current, _ := b.table.Get(sub.Handle)
	b.logger.Debug("subscription registered",
		"handle", current.Handle.String(),
		"caller", current.Caller.String(),
		"target", current.Target,
		"events", current.Events.String())

	if notifyNow {
		b.replay(current, current.Events)
	}
}

// replay invokes sub with every cached value of kinds in its scope, in
// kind enumeration order. Nothing is replayed for a target that does not
// resolve to an active phone, except global kinds.
func (b *Broker) replay(sub *subscriber.Subscription, kinds telephony.EventSet) {
	cb := sub.Callback()
	if cb == nil {
		return
	}

	target, ok := b.mapper.Resolve(sub.Target)
	for _, kind := range kinds.Kinds() {
		if !cb.Handles(kind) {
			continue
		}

		scope := statecache.PhoneScope(target.PhoneID)
		if kind.Scope() == telephony.ScopeGlobal {
			scope = statecache.GlobalScope()
		} else if !ok {
			continue
		}

		for _, record := range b.cache.Get(kind, scope) {
			b.invoke(sub, cb, kind, record.Payload, true)
		}
	}
}

// invoke runs one callback, recovering from panics so the worker and the
// remaining observers carry on.
func (b *Broker) invoke(sub *subscriber.Subscription, cb *registry.Callback, kind telephony.EventKind, payload any, replay bool) {
	defer func() {
		if r := recover(); r != nil {
			b.stats.panics.Add(1)
			b.logger.Error("callback panicked",
				"handle", sub.Handle.String(),
				"caller", sub.Caller.String(),
				"kind", kind.String(),
				"panic", r)
		}
	}()

	if replay {
		b.stats.replays.Add(1)
	} else {
		b.stats.deliveries.Add(1)
	}
	cb.Invoke(kind, payload)
}

func (b *Broker) applyTopology(activeSlots int) {
	previous, err := b.mapper.ApplyTopologyChange(activeSlots)
	if err != nil {
		b.logger.Warn("topology change ignored", "active_slots", activeSlots, "error", err)
		return
	}

	removed := 0
	for phoneID := activeSlots; phoneID < previous; phoneID++ {
		removed += b.cache.DropScope(statecache.PhoneScope(phoneID))
	}
	for phoneID := previous; phoneID < activeSlots; phoneID++ {
		b.seed(phoneID)
	}
	b.activeSlots.Store(int64(activeSlots))

	stranded := 0
	for _, subID := range b.mapper.BoundSubscriptions() {
		if _, ok := b.mapper.PhoneForSubscription(subID); !ok {
			stranded++
		}
	}

	b.logger.Info("topology changed",
		"from", previous,
		"to", activeSlots,
		"records_dropped", removed,
		"subscriptions_outside_slots", stranded)
}

func (b *Broker) applyDefault(subID, slot int) {
	previousPhone := b.mapper.SetDefault(subID, slot)
	_, phoneID := b.mapper.Default()
	b.logger.Info("default subscription changed", "subscription", subID, "phone", phoneID)

	if phoneID == previousPhone || !b.mapper.IsValidPhone(phoneID) {
		return
	}

	for sub := range b.table.All() {
		if !sub.TargetsDefault() {
			continue
		}
		b.replay(sub, phoneScoped(sub.Events))
	}
}

// seed stores the sentinel values of a newly active slot.
func (b *Broker) seed(phoneID int) {
	b.cache.Seed(telephony.EventRadioPowerStateChanged, statecache.PhoneScope(phoneID), telephony.RadioPowerUnavailable)
}

func phoneScoped(events telephony.EventSet) telephony.EventSet {
	var out telephony.EventSet
	for _, kind := range events.Kinds() {
		if kind.Scope() != telephony.ScopeGlobal {
			out = out.With(kind)
		}
	}
	return out
}
