package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// Snapshot is a consistent view of the broker state, taken on the worker.
type Snapshot struct {
	TakenAt               time.Time
	ActiveSlots           int
	DefaultSubscriptionID int
	DefaultPhoneID        int

	// Bindings maps subscription ids to slots
	Bindings map[int]int

	Records       []RecordSnapshot
	Subscriptions []SubscriptionSnapshot
}

// RecordSnapshot is one cached value.
type RecordSnapshot struct {
	Kind      telephony.EventKind
	Scope     string
	Item      string
	Payload   any
	Version   uint64
	UpdatedAt time.Time
}

// SubscriptionSnapshot is one registration.
type SubscriptionSnapshot struct {
	Handle string
	Caller string
	Target int
	Events telephony.EventSet

	// Alive is false once the callback has been collected
	Alive bool
}

// Snapshot captures topology, cached values and registrations.
func (b *Broker) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := b.query(ctx, func() {
		defaultSubID, defaultPhoneID := b.mapper.Default()
		snap = &Snapshot{
			TakenAt:               time.Now(),
			ActiveSlots:           b.mapper.ActiveSlots(),
			DefaultSubscriptionID: defaultSubID,
			DefaultPhoneID:        defaultPhoneID,
			Bindings:              b.mapper.Bindings(),
		}
		for _, r := range b.cache.Records() {
			snap.Records = append(snap.Records, RecordSnapshot{
				Kind:      r.Kind,
				Scope:     r.Scope.String(),
				Item:      r.Item,
				Payload:   r.Payload,
				Version:   r.Version,
				UpdatedAt: r.UpdatedAt,
			})
		}
		for sub := range b.table.All() {
			snap.Subscriptions = append(snap.Subscriptions, SubscriptionSnapshot{
				Handle: sub.Handle.String(),
				Caller: sub.Caller.String(),
				Target: sub.Target,
				Events: sub.Events,
				Alive:  sub.Callback() != nil,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ToStruct renders the snapshot as a protobuf Struct.
func (s *Snapshot) ToStruct() (*structpb.Struct, error) {
	bindings := make(map[string]any, len(s.Bindings))
	for subID, slot := range s.Bindings {
		bindings[strconv.Itoa(subID)] = slot
	}

	records := make([]any, 0, len(s.Records))
	for _, r := range s.Records {
		payload, err := plainValue(r.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s payload: %w", r.Kind, err)
		}
		record := map[string]any{
			"kind":      r.Kind.String(),
			"scope":     r.Scope,
			"payload":   payload,
			"version":   r.Version,
			"updatedAt": r.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}
		if r.Item != "" {
			record["item"] = r.Item
		}
		records = append(records, record)
	}

	subscriptions := make([]any, 0, len(s.Subscriptions))
	for _, sub := range s.Subscriptions {
		subscriptions = append(subscriptions, map[string]any{
			"handle": sub.Handle,
			"caller": sub.Caller,
			"target": sub.Target,
			"events": sub.Events.String(),
			"alive":  sub.Alive,
		})
	}

	return structpb.NewStruct(map[string]any{
		"takenAt":               s.TakenAt.UTC().Format(time.RFC3339Nano),
		"activeSlots":           s.ActiveSlots,
		"defaultSubscriptionId": s.DefaultSubscriptionID,
		"defaultPhoneId":        s.DefaultPhoneID,
		"bindings":              bindings,
		"records":               records,
		"subscriptions":         subscriptions,
	})
}

// MarshalJSON encodes the snapshot with protojson.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	st, err := s.ToStruct()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(st)
}

// plainValue converts a payload into the maps, slices and scalars a
// structpb.Value accepts, going through its JSON form.
func plainValue(payload any) (any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
