package statecache

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

var (
	// ErrUnencodablePayload is returned when a payload cannot be fingerprinted
	ErrUnencodablePayload = errors.New("payload cannot be encoded")
	// ErrUnknownKind is returned when a record is written for a kind outside the catalog
	ErrUnknownKind = errors.New("unknown event kind")
)

// Scope addresses cached values: one phone slot, or the device-wide scope.
type Scope struct {
	Global  bool
	PhoneID int
}

// PhoneScope returns the scope of one modem slot.
func PhoneScope(phoneID int) Scope {
	return Scope{PhoneID: phoneID}
}

// GlobalScope returns the device-wide scope.
func GlobalScope() Scope {
	return Scope{Global: true, PhoneID: telephony.InvalidPhoneID}
}

// String renders the scope for logs
func (s Scope) String() string {
	if s.Global {
		return "global"
	}
	return fmt.Sprintf("phone/%d", s.PhoneID)
}

// Record is the last known value of one event kind in one scope.
// Multi-valued kinds hold one record per Item; others use an empty Item.
type Record struct {
	Kind        telephony.EventKind
	Scope       Scope
	Item        string
	Payload     any
	Fingerprint []byte
	Version     uint64
	UpdatedAt   time.Time
}

type key struct {
	kind  telephony.EventKind
	scope Scope
}

// Cache keeps the last known payload per (kind, scope, item).
// It is not safe for concurrent use: the registry worker owns it.
type Cache struct {
	records map[key][]*Record // items in first-write order
	version uint64
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		records: make(map[key][]*Record),
		now:     time.Now,
	}
}

// Put stores payload unless an equal value is already cached for
// (kind, scope, item). changed is false for an equal value, in which case
// the existing record is left untouched.
func (c *Cache) Put(kind telephony.EventKind, scope Scope, item string, payload any) (changed bool, err error) {
	if !kind.Valid() {
		return false, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	fingerprint, err := Fingerprint(payload)
	if err != nil {
		return false, err
	}

	k := key{kind: kind, scope: scope}
	items := c.records[k]
	for _, existing := range items {
		if existing.Item != item {
			continue
		}
		if bytes.Equal(existing.Fingerprint, fingerprint) {
			return false, nil
		}
		c.version++
		existing.Payload = payload
		existing.Fingerprint = fingerprint
		existing.Version = c.version
		existing.UpdatedAt = c.now()
		return true, nil
	}

	c.version++
	c.records[k] = append(items, &Record{
		Kind:        kind,
		Scope:       scope,
		Item:        item,
		Payload:     payload,
		Fingerprint: fingerprint,
		Version:     c.version,
		UpdatedAt:   c.now(),
	})
	return true, nil
}

// Seed stores payload as the initial value of (kind, scope) when nothing
// is cached yet. It reports whether the value was stored.
func (c *Cache) Seed(kind telephony.EventKind, scope Scope, payload any) bool {
	if len(c.records[key{kind: kind, scope: scope}]) > 0 {
		return false
	}
	changed, err := c.Put(kind, scope, "", payload)
	return err == nil && changed
}

// Get returns copies of every record of (kind, scope) in first-write order.
func (c *Cache) Get(kind telephony.EventKind, scope Scope) []Record {
	items := c.records[key{kind: kind, scope: scope}]
	out := make([]Record, 0, len(items))
	for _, r := range items {
		out = append(out, *r)
	}
	return out
}

// DropScope removes every record held for scope and returns how many were removed.
func (c *Cache) DropScope(scope Scope) int {
	removed := 0
	for k, items := range c.records {
		if k.scope == scope {
			removed += len(items)
			delete(c.records, k)
		}
	}
	return removed
}

// Len returns the number of live records.
func (c *Cache) Len() int {
	n := 0
	for _, items := range c.records {
		n += len(items)
	}
	return n
}

// Records returns copies of all records ordered by kind, then scope
// (global first, then ascending phone id), then first-write order.
func (c *Cache) Records() []Record {
	keys := make([]key, 0, len(c.records))
	for k := range c.records {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b key) int {
		if a.kind != b.kind {
			return int(a.kind) - int(b.kind)
		}
		if a.scope.Global != b.scope.Global {
			if a.scope.Global {
				return -1
			}
			return 1
		}
		return a.scope.PhoneID - b.scope.PhoneID
	})

	var out []Record
	for _, k := range keys {
		out = append(out, c.Get(k.kind, k.scope)...)
	}
	return out
}

// Clear removes every record.
func (c *Cache) Clear() {
	c.records = make(map[key][]*Record)
}
