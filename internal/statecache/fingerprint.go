package statecache

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode encodes payloads deterministically so equal values always
// produce equal bytes.
var encMode cbor.EncMode

func init() {
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnixMicro,
	}
	var err error
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
}

// Fingerprint returns the canonical encoding of payload.
func Fingerprint(payload any) ([]byte, error) {
	data, err := encMode.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnencodablePayload, err)
	}
	return data, nil
}

// Equal reports whether two payloads have the same canonical encoding.
func Equal(a, b any) bool {
	fa, errA := Fingerprint(a)
	fb, errB := Fingerprint(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(fa, fb)
}
