package telephony

import (
	"fmt"
	"strings"
)

// RadioPowerState is the modem radio power state.
type RadioPowerState int

const (
	RadioPowerOff         RadioPowerState = 0
	RadioPowerOn          RadioPowerState = 1
	RadioPowerUnavailable RadioPowerState = 2
)

// String returns the radio power state name
func (s RadioPowerState) String() string {
	switch s {
	case RadioPowerOff:
		return "off"
	case RadioPowerOn:
		return "on"
	case RadioPowerUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("radio-power(%d)", int(s))
	}
}

// ParseRadioPowerState parses "on", "off" or "unavailable".
func ParseRadioPowerState(s string) (RadioPowerState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return RadioPowerOff, nil
	case "on":
		return RadioPowerOn, nil
	case "unavailable":
		return RadioPowerUnavailable, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRadioPowerState, s)
}

// SrvccState is the single radio voice call continuity handover state.
type SrvccState int

const (
	SrvccStateNone              SrvccState = -1
	SrvccStateHandoverStarted   SrvccState = 0
	SrvccStateHandoverCompleted SrvccState = 1
	SrvccStateHandoverFailed    SrvccState = 2
	SrvccStateHandoverCanceled  SrvccState = 3
)

// CallState is the coarse voice call state of a line.
type CallState struct {
	State  int    `cbor:"1,keyasint" json:"state"`
	Number string `cbor:"2,keyasint,omitempty" json:"number,omitempty"`
}

const (
	CallStateIdle    = 0
	CallStateRinging = 1
	CallStateOffhook = 2
)

// ServiceState summarises voice and data registration of a slot.
type ServiceState struct {
	VoiceRegState int    `cbor:"1,keyasint" json:"voiceRegState"`
	DataRegState  int    `cbor:"2,keyasint" json:"dataRegState"`
	OperatorName  string `cbor:"3,keyasint,omitempty" json:"operatorName,omitempty"`
	Roaming       bool   `cbor:"4,keyasint" json:"roaming"`
}

// DataConnectionState is the aggregate mobile data connection state.
type DataConnectionState struct {
	State       int `cbor:"1,keyasint" json:"state"`
	NetworkType int `cbor:"2,keyasint" json:"networkType"`
}

// Data connection states
const (
	DataDisconnected  = 0
	DataConnecting    = 1
	DataConnected     = 2
	DataSuspended     = 3
	DataDisconnecting = 4
)

// Network types used in payloads
const (
	NetworkTypeUnknown = 0
	NetworkTypeLTE     = 13
	NetworkTypeNR      = 20
)

// Transport types for precise data connections
const (
	TransportTypeWWAN = 1
	TransportTypeWLAN = 2
)

// DataActivity is the direction of current data traffic.
type DataActivity int

// SignalStrength is a reduced signal report.
type SignalStrength struct {
	Level int `cbor:"1,keyasint" json:"level"`
	Dbm   int `cbor:"2,keyasint" json:"dbm"`
}

// PreciseCallState reports the state of each call slot of a line.
type PreciseCallState struct {
	Ringing    int `cbor:"1,keyasint" json:"ringing"`
	Foreground int `cbor:"2,keyasint" json:"foreground"`
	Background int `cbor:"3,keyasint" json:"background"`
}

// ApnSetting identifies the access point a data connection is established on.
type ApnSetting struct {
	Name      string  `cbor:"1,keyasint" json:"name"`
	EntryName string  `cbor:"2,keyasint" json:"entryName"`
	Types     ApnType `cbor:"3,keyasint" json:"types"`
}

// PreciseDataConnectionState describes one data connection. A slot may carry
// several at once, one per (transport, APN).
type PreciseDataConnectionState struct {
	TransportType int        `cbor:"1,keyasint" json:"transportType"`
	ID            int        `cbor:"2,keyasint" json:"id"`
	State         int        `cbor:"3,keyasint" json:"state"`
	NetworkType   int        `cbor:"4,keyasint" json:"networkType"`
	Apn           ApnSetting `cbor:"5,keyasint" json:"apn"`
	FailCause     int        `cbor:"6,keyasint" json:"failCause"`
}

// Key returns the item key the state is cached under.
func (s PreciseDataConnectionState) Key() string {
	return fmt.Sprintf("%d/%s/%d", s.TransportType, s.Apn.Name, uint32(s.Apn.Types))
}

// String renders the state for logs
func (s PreciseDataConnectionState) String() string {
	return fmt.Sprintf("pdcs{transport=%d id=%d state=%d apn=%s types=%s}",
		s.TransportType, s.ID, s.State, s.Apn.Name, ApnTypesString(s.Apn.Types))
}

// ActivationState is a voice or data activation state.
type ActivationState int

// DisplayInfo is the network type shown to the user, with its override.
type DisplayInfo struct {
	NetworkType         int `cbor:"1,keyasint" json:"networkType"`
	OverrideNetworkType int `cbor:"2,keyasint" json:"overrideNetworkType"`
}

// PhoneCapability describes the multi-SIM capability of the device modem.
type PhoneCapability struct {
	MaxActiveVoiceSubscriptions int  `cbor:"1,keyasint" json:"maxActiveVoiceSubscriptions"`
	MaxActiveDataSubscriptions  int  `cbor:"2,keyasint" json:"maxActiveDataSubscriptions"`
	MaxActiveInternetData       int  `cbor:"3,keyasint" json:"maxActiveInternetData"`
	ValidationBeforeSwitch      bool `cbor:"4,keyasint" json:"validationBeforeSwitch"`
}

// CallAttributes combines the precise call state with call quality.
type CallAttributes struct {
	Call        PreciseCallState `cbor:"1,keyasint" json:"call"`
	NetworkType int              `cbor:"2,keyasint" json:"networkType"`
	Quality     int              `cbor:"3,keyasint" json:"quality"`
}

// DisconnectCause reports why the last call ended.
type DisconnectCause struct {
	Cause        int `cbor:"1,keyasint" json:"cause"`
	PreciseCause int `cbor:"2,keyasint" json:"preciseCause"`
}

// EmergencyNumber is one dialable emergency number.
type EmergencyNumber struct {
	Number     string `cbor:"1,keyasint" json:"number"`
	CountryISO string `cbor:"2,keyasint,omitempty" json:"countryIso,omitempty"`
	Categories int    `cbor:"3,keyasint" json:"categories"`
}

// ImsReasonInfo reports why an IMS call was disconnected.
type ImsReasonInfo struct {
	Code      int    `cbor:"1,keyasint" json:"code"`
	ExtraCode int    `cbor:"2,keyasint" json:"extraCode"`
	Message   string `cbor:"3,keyasint,omitempty" json:"message,omitempty"`
}

// RegistrationFailure reports a rejected network registration.
type RegistrationFailure struct {
	ChosenPLMN          string `cbor:"1,keyasint" json:"chosenPlmn"`
	Domain              int    `cbor:"2,keyasint" json:"domain"`
	CauseCode           int    `cbor:"3,keyasint" json:"causeCode"`
	AdditionalCauseCode int    `cbor:"4,keyasint" json:"additionalCauseCode"`
}

// BarringInfo maps barring service types to whether they are barred.
type BarringInfo struct {
	Barred map[int]bool `cbor:"1,keyasint" json:"barred"`
}

// PhysicalChannelConfig describes one active physical channel.
type PhysicalChannelConfig struct {
	NetworkType          int `cbor:"1,keyasint" json:"networkType"`
	Band                 int `cbor:"2,keyasint" json:"band"`
	DownlinkBandwidthKhz int `cbor:"3,keyasint" json:"downlinkBandwidthKhz"`
	PhysicalCellID       int `cbor:"4,keyasint" json:"physicalCellId"`
}

// DataEnabled reports the user data switch and why it last changed.
type DataEnabled struct {
	Enabled bool `cbor:"1,keyasint" json:"enabled"`
	Reason  int  `cbor:"2,keyasint" json:"reason"`
}

// AllowedNetworkTypes is the allowed network type bitmask for one reason.
type AllowedNetworkTypes struct {
	Reason  int   `cbor:"1,keyasint" json:"reason"`
	Bitmask int64 `cbor:"2,keyasint" json:"bitmask"`
}

// LinkCapacityEstimateInvalid marks an unknown capacity value.
const LinkCapacityEstimateInvalid = -1

// Link capacity estimate types
const (
	LceTypePrimary   = 0
	LceTypeSecondary = 1
	LceTypeCombined  = 2
)

// LinkCapacityEstimate is one downlink/uplink estimate in kbps.
type LinkCapacityEstimate struct {
	Type         int `cbor:"1,keyasint" json:"type"`
	DownlinkKbps int `cbor:"2,keyasint" json:"downlinkKbps"`
	UplinkKbps   int `cbor:"3,keyasint" json:"uplinkKbps"`
}
