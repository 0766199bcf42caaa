package subscriber

import (
	"iter"
	"slices"
	"weak"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// Subscription is one observer registration.
type Subscription struct {
	Handle registry.Handle
	Caller permission.Caller

	// Target is a subscription id or telephony.DefaultSubscriptionID
	Target int

	Events telephony.EventSet

	callback weak.Pointer[registry.Callback]
}

// New creates a subscription for callback. The subscription does not keep
// callback alive.
func New(callback *registry.Callback, caller permission.Caller, target int, events telephony.EventSet) *Subscription {
	return &Subscription{
		Handle:   callback.Handle(),
		Caller:   caller,
		Target:   target,
		Events:   events,
		callback: weak.Make(callback),
	}
}

// Callback returns the registered callback, or nil once it has been collected.
func (s *Subscription) Callback() *registry.Callback {
	return s.callback.Value()
}

// TargetsDefault reports whether the subscription follows the default subscription.
func (s *Subscription) TargetsDefault() bool {
	return s.Target == telephony.DefaultSubscriptionID
}

// Table holds subscriptions in registration order.
// It is not safe for concurrent use: the registry worker owns it.
type Table struct {
	order []*Subscription
	index map[registry.Handle]*Subscription
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		index: make(map[registry.Handle]*Subscription),
	}
}

// Upsert adds sub, or replaces the target, caller, events and callback of
// the existing registration with the same handle while keeping its position.
// An empty event set removes the registration.
func (t *Table) Upsert(sub *Subscription) {
	if sub.Events.Empty() {
		t.Remove(sub.Handle)
		return
	}

	if existing, ok := t.index[sub.Handle]; ok {
		existing.Caller = sub.Caller
		existing.Target = sub.Target
		existing.Events = sub.Events
		existing.callback = sub.callback
		return
	}

	t.order = append(t.order, sub)
	t.index[sub.Handle] = sub
}

// Remove deletes the registration of handle and reports whether it existed.
func (t *Table) Remove(handle registry.Handle) bool {
	if _, ok := t.index[handle]; !ok {
		return false
	}
	delete(t.index, handle)
	t.order = slices.DeleteFunc(t.order, func(s *Subscription) bool {
		return s.Handle == handle
	})
	return true
}

// Get returns the registration of handle.
func (t *Table) Get(handle registry.Handle) (*Subscription, bool) {
	sub, ok := t.index[handle]
	return sub, ok
}

// Len returns the number of registrations.
func (t *Table) Len() int {
	return len(t.order)
}

// All yields every registration in registration order.
func (t *Table) All() iter.Seq[*Subscription] {
	return func(yield func(*Subscription) bool) {
		for _, sub := range slices.Clone(t.order) {
			if !yield(sub) {
				return
			}
		}
	}
}

// Matching yields, in registration order, every live registration that
// requested kind and for which match returns true. A nil match accepts all.
// Registrations whose callback has been collected are skipped and removed
// once iteration ends.
func (t *Table) Matching(kind telephony.EventKind, match func(*Subscription) bool) iter.Seq[*Subscription] {
	return func(yield func(*Subscription) bool) {
		var dead []registry.Handle
		defer func() {
			for _, h := range dead {
				t.Remove(h)
			}
		}()

		for _, sub := range slices.Clone(t.order) {
			if !sub.Events.Has(kind) {
				continue
			}
			if sub.Callback() == nil {
				dead = append(dead, sub.Handle)
				continue
			}
			if match != nil && !match(sub) {
				continue
			}
			if !yield(sub) {
				return
			}
		}
	}
}

// Prune removes every registration whose callback has been collected and
// returns how many were removed.
func (t *Table) Prune() int {
	var dead []registry.Handle
	for _, sub := range t.order {
		if sub.Callback() == nil {
			dead = append(dead, sub.Handle)
		}
	}
	for _, h := range dead {
		t.Remove(h)
	}
	return len(dead)
}
