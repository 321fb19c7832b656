package iwd

import (
	"strings"

	"github.com/muurk/wifid/internal/radio"
)

// authMode maps an iwd Network "Type" to the API encryption code.
func authMode(security string) radio.AuthMode {
	switch security {
	case "open":
		return radio.AuthOpen
	case "wep":
		return radio.AuthWEP
	case "psk":
		return radio.AuthWPA2PSK
	case "8021x":
		return radio.AuthWPA2Enterprise
	default:
		return radio.AuthWPAWPA2PSK
	}
}

// opMode maps an iwd Device "Mode" to the API operating mode.
func opMode(mode string) radio.OpMode {
	switch mode {
	case "station", "ad-hoc":
		return radio.ModeStation
	case "ap":
		return radio.ModeSoftAP
	default:
		return radio.ModeNull
	}
}

// connectFailure maps the D-Bus error returned by Network.Connect to a
// station status. askedPassphrase reports whether iwd requested the
// passphrase from our agent during the attempt.
func connectFailure(errName string, askedPassphrase bool) radio.StationStatus {
	switch {
	case strings.HasSuffix(errName, ".NotFound"), strings.HasSuffix(errName, ".NotAvailable"):
		return radio.StatusNoAPFound
	case strings.HasSuffix(errName, ".InvalidFormat"):
		return radio.StatusWrongPassword
	case askedPassphrase && strings.HasSuffix(errName, ".Failed"):
		return radio.StatusWrongPassword
	default:
		return radio.StatusConnectFail
	}
}

// stationStatus derives the API status from iwd's station state.
// failure wins over the station state; an address is required for
// StatusGotIP.
func stationStatus(state string, inFlight bool, failure radio.StationStatus, hasIP bool) radio.StationStatus {
	if failure != radio.StatusIdle {
		return failure
	}
	switch state {
	case "connected", "roaming":
		if hasIP {
			return radio.StatusGotIP
		}
		return radio.StatusConnecting
	case "connecting":
		return radio.StatusConnecting
	default:
		if inFlight {
			return radio.StatusConnecting
		}
		return radio.StatusIdle
	}
}

// rssiDBm converts iwd signal strength (1/100 dBm) to dBm.
func rssiDBm(centi int16) int {
	return int(centi) / 100
}
