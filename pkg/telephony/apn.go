package telephony

import (
	"math/bits"
	"strings"
)

// ApnType is a bitmask of APN types.
type ApnType uint32

const (
	apnBitDefault ApnType = 1 << 0

	ApnTypeMMS       ApnType = 1 << 1
	ApnTypeSUPL      ApnType = 1 << 2
	ApnTypeDUN       ApnType = 1 << 3
	ApnTypeHIPRI     ApnType = 1 << 4
	ApnTypeFOTA      ApnType = 1 << 5
	ApnTypeIMS       ApnType = 1 << 6
	ApnTypeCBS       ApnType = 1 << 7
	ApnTypeIA        ApnType = 1 << 8
	ApnTypeEmergency ApnType = 1 << 9
	ApnTypeMCX       ApnType = 1 << 10
	ApnTypeXCAP      ApnType = 1 << 11

	// ApnTypeDefault is not a pure bit: a default APN also serves HIPRI.
	ApnTypeDefault = apnBitDefault | ApnTypeHIPRI
)

var apnTypeNames = map[ApnType]string{
	ApnTypeMMS:       "mms",
	ApnTypeSUPL:      "supl",
	ApnTypeDUN:       "dun",
	ApnTypeHIPRI:     "hipri",
	ApnTypeFOTA:      "fota",
	ApnTypeIMS:       "ims",
	ApnTypeCBS:       "cbs",
	ApnTypeIA:        "ia",
	ApnTypeEmergency: "emergency",
	ApnTypeMCX:       "mcx",
	ApnTypeXCAP:      "xcap",
}

// ApnTypesString renders an APN type mask as a comma-joined label list.
//
// "default" comes first when the full default mask is present and consumes
// its bits; the remaining bits follow from highest to lowest. Bits outside
// the known set contribute nothing, so 0 and wholly unknown masks render "".
func ApnTypesString(mask ApnType) string {
	var types []string
	remaining := mask

	if remaining&ApnTypeDefault == ApnTypeDefault {
		types = append(types, "default")
		remaining &^= ApnTypeDefault
	}

	for remaining != 0 {
		highest := ApnType(1) << (31 - bits.LeadingZeros32(uint32(remaining)))
		if name, ok := apnTypeNames[highest]; ok {
			types = append(types, name)
		}
		remaining &^= highest
	}

	return strings.Join(types, ",")
}

// String renders the mask with ApnTypesString
func (t ApnType) String() string {
	return ApnTypesString(t)
}
