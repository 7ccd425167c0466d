package radio

import (
	"fmt"
	"time"
)

// Mode is the operating mode of the WiFi radio.
type Mode int

const (
	// ModeIdle means the radio is stopped or unconfigured
	ModeIdle Mode = iota
	// ModeAccessPoint serves the local provisioning network only
	ModeAccessPoint
	// ModeStation acts as a client of an upstream network only
	ModeStation
	// ModeDual runs the access point and station interfaces together
	ModeDual
)

// String returns the lowercase name of the mode
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAccessPoint:
		return "access_point"
	case ModeStation:
		return "station"
	case ModeDual:
		return "dual"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// HasAccessPoint reports whether the AP interface is up in this mode.
func (m Mode) HasAccessPoint() bool {
	return m == ModeAccessPoint || m == ModeDual
}

// HasStation reports whether the station interface is up in this mode.
func (m Mode) HasStation() bool {
	return m == ModeStation || m == ModeDual
}

// AuthMode is the security mode advertised by an access point.
// The numeric values are what the driver reports and what /scan returns.
type AuthMode int

const (
	AuthOpen AuthMode = iota
	AuthWEP
	AuthWPAPSK
	AuthWPA2PSK
	AuthWPAWPA2PSK
	AuthWPA2Enterprise
	AuthWPA3PSK
	AuthWPA2WPA3PSK
	AuthWAPIPSK
	AuthOWE
)

var authModeNames = map[AuthMode]string{
	AuthOpen:           "OPEN",
	AuthWEP:            "WEP",
	AuthWPAPSK:         "WPA_PSK",
	AuthWPA2PSK:        "WPA2_PSK",
	AuthWPAWPA2PSK:     "WPA_WPA2_PSK",
	AuthWPA2Enterprise: "WPA2_ENTERPRISE",
	AuthWPA3PSK:        "WPA3_PSK",
	AuthWPA2WPA3PSK:    "WPA2_WPA3_PSK",
	AuthWAPIPSK:        "WAPI_PSK",
	AuthOWE:            "OWE",
}

func (a AuthMode) String() string {
	if name, ok := authModeNames[a]; ok {
		return name
	}
	return fmt.Sprintf("AuthMode(%d)", int(a))
}

// ParseAuthMode converts a name such as "WPA2_PSK" back to an AuthMode.
func ParseAuthMode(name string) (AuthMode, error) {
	for mode, n := range authModeNames {
		if n == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown auth mode %q", name)
}

// MaxSSIDLength is the 802.11 limit on SSID length in bytes.
const MaxSSIDLength = 32

// MaxPassphraseLength is the longest passphrase the station config accepts.
const MaxPassphraseLength = 64

// AccessPointRecord is one network found by a scan.
type AccessPointRecord struct {
	SSID     string   `json:"ssid"`
	RSSI     int      `json:"rssi"`
	AuthMode AuthMode `json:"authmode"`
}

// ScanRequest holds the parameters of a single scan.
// ActiveMin and ActiveMax are per-channel dwell times.
type ScanRequest struct {
	ShowHidden bool
	ActiveMin  time.Duration
	ActiveMax  time.Duration
}

// DefaultScanRequest returns the scan parameters used by the portal:
// hidden networks included, active dwell of 0-100ms per channel.
func DefaultScanRequest() ScanRequest {
	return ScanRequest{
		ShowHidden: true,
		ActiveMin:  0,
		ActiveMax:  100 * time.Millisecond,
	}
}

// APConfig describes the provisioning access point.
type APConfig struct {
	SSID       string
	Password   string
	Channel    int
	MaxClients int
}

// Auth returns the security mode the AP will use: open when no password
// is set, WPA/WPA2 mixed otherwise.
func (c APConfig) Auth() AuthMode {
	if c.Password == "" {
		return AuthOpen
	}
	return AuthWPAWPA2PSK
}

// APInterfaceConfig is what the driver receives when the AP is configured.
type APInterfaceConfig struct {
	SSID        string
	Password    string
	Channel     int
	MaxClients  int
	Auth        AuthMode
	PMFRequired bool
}

// StationConfig is the upstream network the station interface joins.
type StationConfig struct {
	SSID       string
	Password   string
	PMFCapable bool
}

// String hides the password
func (c StationConfig) String() string {
	return fmt.Sprintf("StationConfig{SSID:%q, Password:%d bytes}", c.SSID, len(c.Password))
}
