package telephony

import "math"

const (
	// DefaultSubscriptionID addresses whichever subscription is currently the
	// default. Listeners may target it; producers never notify with it.
	DefaultSubscriptionID = math.MaxInt32

	// InvalidSubscriptionID marks a notification that is not tied to a
	// subscription; such events match listeners by phone id instead.
	InvalidSubscriptionID = -1

	// InvalidPhoneID is returned when a subscription is not bound to any slot.
	InvalidPhoneID = -1
)

// ValidSubscriptionID reports whether id names a concrete subscription.
func ValidSubscriptionID(id int) bool {
	return id >= 0 && id != DefaultSubscriptionID
}
