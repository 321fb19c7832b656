package radio

import (
	"errors"
	"fmt"
	"net"
)

// MaxSSIDLen and MaxPasswordLen are the 802.11 / WPA limits the station
// configuration enforces.
const (
	MaxSSIDLen     = 32
	MaxPasswordLen = 64
)

var (
	// ErrScanBusy is returned by Driver.Scan when the radio refuses a second scan.
	ErrScanBusy = errors.New("radio: scan already in progress")
	// ErrNotReady is returned when the underlying radio is not available yet.
	ErrNotReady = errors.New("radio: device not ready")
)

// StationStatus is the station connection status. The numeric values are
// part of the HTTP API and are passed to clients verbatim.
type StationStatus int

const (
	StatusIdle          StationStatus = 0
	StatusConnecting    StationStatus = 1
	StatusWrongPassword StationStatus = 2
	StatusNoAPFound     StationStatus = 3
	StatusConnectFail   StationStatus = 4
	StatusGotIP         StationStatus = 5
)

// IsFailure reports whether the status is one of the association failures
// (wrong password, AP not found, connect failed).
func (s StationStatus) IsFailure() bool {
	return s >= StatusWrongPassword && s <= StatusConnectFail
}

func (s StationStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusWrongPassword:
		return "wrong_password"
	case StatusNoAPFound:
		return "no_ap_found"
	case StatusConnectFail:
		return "connect_fail"
	case StatusGotIP:
		return "got_ip"
	default:
		return fmt.Sprintf("StationStatus(%d)", int(s))
	}
}

// AuthMode is the encryption mode advertised by an access point.
type AuthMode int

const (
	AuthOpen AuthMode = iota
	AuthWEP
	AuthWPAPSK
	AuthWPA2PSK
	AuthWPAWPA2PSK
	AuthWPA2Enterprise
)

// OpMode is the radio operating mode.
type OpMode int

const (
	ModeNull      OpMode = 0
	ModeStation   OpMode = 1
	ModeSoftAP    OpMode = 2
	ModeStationAP OpMode = 3
)

// BSS is one scan result as reported by the driver. SSID may be empty for
// hidden networks.
type BSS struct {
	SSID    string
	BSSID   string
	RSSI    int
	Auth    AuthMode
	Channel int
}

// StationConfig is the station configuration installed on the radio.
type StationConfig struct {
	SSID     string
	Password string
	BSSIDSet bool
	BSSID    string
}

// Empty reports whether no network is configured.
func (c StationConfig) Empty() bool {
	return c.SSID == "" && c.Password == ""
}

// ScanDone is called once per Scan with the results or the failure.
// Drivers may call it from any goroutine.
type ScanDone func(results []BSS, err error)

// Driver is the radio abstraction the WiFi handlers are built on. Every
// method returns promptly; long-running work completes in the background
// and is observed through ScanDone or Status.
type Driver interface {
	// Scan starts a scan and returns immediately.
	Scan(done ScanDone) error
	// Connect starts association using the installed configuration.
	Connect() error
	// Disconnect drops the current association, if any.
	Disconnect() error
	// SetConfig installs a station configuration.
	SetConfig(cfg StationConfig) error
	// Config returns the installed station configuration.
	Config() StationConfig
	// Status returns the last known connection status.
	Status() StationStatus
	// IP returns the station IPv4 address, or nil.
	IP() net.IP
	// Mode returns the radio operating mode.
	Mode() OpMode
}

// FrequencyToChannel converts a centre frequency in MHz to an 802.11
// channel number. Unknown frequencies map to 0.
func FrequencyToChannel(mhz int) int {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz < 2484:
		return (mhz-2412)/5 + 1
	case mhz >= 5000 && mhz <= 5900:
		return (mhz - 5000) / 5
	case mhz >= 5955 && mhz <= 7115:
		return (mhz-5955)/5 + 1
	default:
		return 0
	}
}
