package telephony

import "errors"

var (
	// ErrUnknownEventKind is returned when a name or id is not part of the catalog
	ErrUnknownEventKind = errors.New("unknown event kind")
	// ErrUnknownRadioPowerState is returned when a radio power name cannot be parsed
	ErrUnknownRadioPowerState = errors.New("unknown radio power state")
)
