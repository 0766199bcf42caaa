package registry

import "github.com/google/uuid"

// Handle identifies one Callback. Listening again with the same callback
// replaces its previous registration.
type Handle uuid.UUID

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

// String returns the canonical uuid form of the handle
func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h == Handle(uuid.Nil)
}
