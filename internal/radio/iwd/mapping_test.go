package iwd

import (
	"testing"

	"github.com/muurk/wifid/internal/radio"
)

func TestAuthMode(t *testing.T) {
	tests := []struct {
		security string
		want     radio.AuthMode
	}{
		{"open", radio.AuthOpen},
		{"wep", radio.AuthWEP},
		{"psk", radio.AuthWPA2PSK},
		{"8021x", radio.AuthWPA2Enterprise},
		{"sae", radio.AuthWPAWPA2PSK},
		{"", radio.AuthWPAWPA2PSK},
	}

	for _, tt := range tests {
		t.Run(tt.security, func(t *testing.T) {
			if got := authMode(tt.security); got != tt.want {
				t.Errorf("authMode(%q) = %d, want %d", tt.security, got, tt.want)
			}
		})
	}
}

func TestOpMode(t *testing.T) {
	tests := map[string]radio.OpMode{
		"station": radio.ModeStation,
		"ad-hoc":  radio.ModeStation,
		"ap":      radio.ModeSoftAP,
		"":        radio.ModeNull,
		"mesh":    radio.ModeNull,
	}

	for mode, want := range tests {
		if got := opMode(mode); got != want {
			t.Errorf("opMode(%q) = %d, want %d", mode, got, want)
		}
	}
}

func TestConnectFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    string
		asked  bool
		expect radio.StationStatus
	}{
		{"not found", "net.connman.iwd.NotFound", false, radio.StatusNoAPFound},
		{"not available", "net.connman.iwd.NotAvailable", true, radio.StatusNoAPFound},
		{"invalid format", "net.connman.iwd.InvalidFormat", false, radio.StatusWrongPassword},
		{"failed after passphrase", "net.connman.iwd.Failed", true, radio.StatusWrongPassword},
		{"failed without passphrase", "net.connman.iwd.Failed", false, radio.StatusConnectFail},
		{"aborted", "net.connman.iwd.Aborted", true, radio.StatusConnectFail},
		{"transport error", "", false, radio.StatusConnectFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := connectFailure(tt.err, tt.asked); got != tt.expect {
				t.Errorf("connectFailure(%q, %v) = %v, want %v", tt.err, tt.asked, got, tt.expect)
			}
		})
	}
}

func TestStationStatus(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		inFlight bool
		failure  radio.StationStatus
		hasIP    bool
		want     radio.StationStatus
	}{
		{"idle", "disconnected", false, radio.StatusIdle, false, radio.StatusIdle},
		{"attempt queued", "disconnected", true, radio.StatusIdle, false, radio.StatusConnecting},
		{"associating", "connecting", true, radio.StatusIdle, false, radio.StatusConnecting},
		{"associated without lease", "connected", false, radio.StatusIdle, false, radio.StatusConnecting},
		{"associated with lease", "connected", false, radio.StatusIdle, true, radio.StatusGotIP},
		{"roaming keeps address", "roaming", false, radio.StatusIdle, true, radio.StatusGotIP},
		{"failure wins", "connected", false, radio.StatusWrongPassword, true, radio.StatusWrongPassword},
		{"no ap", "disconnected", false, radio.StatusNoAPFound, false, radio.StatusNoAPFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stationStatus(tt.state, tt.inFlight, tt.failure, tt.hasIP)
			if got != tt.want {
				t.Errorf("stationStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRSSIDBm(t *testing.T) {
	tests := map[int16]int{
		-4500: -45,
		-7250: -72,
		0:     0,
	}
	for in, want := range tests {
		if got := rssiDBm(in); got != want {
			t.Errorf("rssiDBm(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAgentPassphrase(t *testing.T) {
	a := newAgent(nil)
	const network = "/net/connman/iwd/0/3/486f6d65_psk"

	if _, err := a.RequestPassphrase(network); err == nil {
		t.Fatal("expected error without a pending credential")
	}
	if !a.takeAsked(network) {
		t.Error("takeAsked() = false after a request")
	}

	a.setPending(network, "hunter22")
	pass, err := a.RequestPassphrase(network)
	if err != nil {
		t.Fatalf("RequestPassphrase() error = %v", err)
	}
	if pass != "hunter22" {
		t.Errorf("passphrase = %q", pass)
	}
	if !a.takeAsked(network) {
		t.Error("takeAsked() = false after a supplied passphrase")
	}
	if a.takeAsked(network) {
		t.Error("takeAsked() should reset")
	}
	if _, err := a.RequestPassphrase(network); err == nil {
		t.Error("credential should be consumed by takeAsked")
	}
}
