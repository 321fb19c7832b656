package apiclient

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/muurk/wifid/internal/radio"
	"github.com/muurk/wifid/internal/wifi"
)

func sampleScan() *wifi.ScanResponse {
	return &wifi.ScanResponse{
		APCount: 3,
		AP: []wifi.AccessPoint{
			{SSID: "cafe", RSSI: -80, Enc: radio.AuthOpen},
			{SSID: "home", RSSI: -45, Enc: radio.AuthWPA2PSK, Channel: 6},
			{SSID: "office", RSSI: -65, Enc: radio.AuthWPA2Enterprise},
		},
	}
}

func TestAuthName(t *testing.T) {
	tests := map[radio.AuthMode]string{
		radio.AuthOpen:       "OPEN",
		radio.AuthWPA2PSK:    "WPA2-PSK",
		radio.AuthWPAWPA2PSK: "WPA/WPA2-PSK",
		radio.AuthMode(42):   "enc(42)",
	}
	for mode, want := range tests {
		if got := AuthName(mode); got != want {
			t.Errorf("AuthName(%d) = %q, want %q", int(mode), got, want)
		}
	}
}

func TestModeName(t *testing.T) {
	if got := ModeName(radio.ModeStation); got != "station" {
		t.Errorf("ModeName(station) = %q", got)
	}
	if got := ModeName(radio.OpMode(9)); got != "mode(9)" {
		t.Errorf("ModeName(9) = %q", got)
	}
}

func TestSignalQuality(t *testing.T) {
	tests := []struct {
		rssi int
		want string
	}{
		{-40, "excellent"},
		{-50, "excellent"},
		{-55, "good"},
		{-70, "fair"},
		{-90, "weak"},
	}
	for _, tt := range tests {
		if got := SignalQuality(tt.rssi); got != tt.want {
			t.Errorf("SignalQuality(%d) = %q, want %q", tt.rssi, got, tt.want)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	status := &wifi.StatusResponse{SSID: "home", Mode: radio.ModeStation, StationStatus: radio.StatusGotIP, IP: "10.0.0.7"}

	detailed, err := FormatStatus(status, FormatDetailed)
	if err != nil {
		t.Fatalf("FormatStatus(detailed) error = %v", err)
	}
	for _, part := range []string{"=== WiFi Status ===", "Connected (5)", "home", "10.0.0.7", "station"} {
		if !strings.Contains(detailed, part) {
			t.Errorf("detailed output missing %q:\n%s", part, detailed)
		}
	}

	compact, err := FormatStatus(status, FormatCompact)
	if err != nil {
		t.Fatalf("FormatStatus(compact) error = %v", err)
	}
	if compact != "Connected ssid=home ip=10.0.0.7\n" {
		t.Errorf("compact output = %q", compact)
	}

	idle, _ := FormatStatus(&wifi.StatusResponse{Scanning: true}, FormatDetailed)
	if !strings.Contains(idle, "Network:  (none)") {
		t.Errorf("idle output should show no network:\n%s", idle)
	}

	if _, err := FormatStatus(status, "yaml"); !IsValidationError(err) {
		t.Errorf("FormatStatus(yaml) error = %v, want validation error", err)
	}
}

func TestFormatScanSortsBySignal(t *testing.T) {
	out, err := FormatScan(sampleScan(), FormatCompact)
	if err != nil {
		t.Fatalf("FormatScan() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	for i, ssid := range []string{"home", "office", "cafe"} {
		if !strings.HasPrefix(lines[i], ssid+"\t") {
			t.Errorf("line %d = %q, want %s first", i, lines[i], ssid)
		}
	}
}

func TestFormatScanDetailed(t *testing.T) {
	scan := sampleScan()
	out, err := FormatScan(scan, FormatDetailed)
	if err != nil {
		t.Fatalf("FormatScan() error = %v", err)
	}
	for _, part := range []string{"=== 3 network(s) found ===", "SSID", "-45 dBm (excellent)", "WPA2-Enterprise"} {
		if !strings.Contains(out, part) {
			t.Errorf("output missing %q:\n%s", part, out)
		}
	}
	if scan.AP[0].SSID != "cafe" {
		t.Error("FormatScan must not reorder the caller's slice")
	}

	empty, _ := FormatScan(&wifi.ScanResponse{AP: []wifi.AccessPoint{}}, FormatDetailed)
	if empty != "=== 0 network(s) found ===\n" {
		t.Errorf("empty output = %q", empty)
	}
}

func TestFormatScanJSON(t *testing.T) {
	out, err := FormatScan(sampleScan(), FormatJSON)
	if err != nil {
		t.Fatalf("FormatScan() error = %v", err)
	}
	var decoded wifi.ScanResponse
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.APCount != 3 || len(decoded.AP) != 3 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFormatConnect(t *testing.T) {
	ok, _ := FormatConnect("home", &wifi.ConnectResponse{Status: radio.StatusGotIP, IP: "10.0.0.7"}, FormatDetailed)
	if !strings.Contains(ok, "Connected to home") || !strings.Contains(ok, "10.0.0.7") {
		t.Errorf("success output = %q", ok)
	}

	failed, _ := FormatConnect("home", &wifi.ConnectResponse{Status: radio.StatusWrongPassword}, FormatDetailed)
	if !strings.Contains(failed, "Wrong password (status 2)") {
		t.Errorf("failure output = %q", failed)
	}

	compact, _ := FormatConnect("home", &wifi.ConnectResponse{Status: radio.StatusGotIP, IP: "10.0.0.7"}, FormatCompact)
	if compact != "connected home 10.0.0.7\n" {
		t.Errorf("compact output = %q", compact)
	}
}

func TestFormatInternet(t *testing.T) {
	tests := []struct {
		status int
		format string
		want   string
	}{
		{wifi.InternetReachable, FormatDetailed, "Internet: reachable\n"},
		{wifi.InternetUnreachable, FormatDetailed, "Internet: unreachable\n"},
		{wifi.InternetReachable, FormatCompact, "reachable\n"},
		{wifi.InternetUnreachable, FormatJSON, "{\n  \"status\": 0\n}\n"},
	}
	for _, tt := range tests {
		got, err := FormatInternet(&wifi.InternetResponse{Status: tt.status}, tt.format)
		if err != nil {
			t.Fatalf("FormatInternet() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("FormatInternet(%d, %s) = %q, want %q", tt.status, tt.format, got, tt.want)
		}
	}
}
