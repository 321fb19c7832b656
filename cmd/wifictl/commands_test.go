package main

import (
	"strings"
	"testing"

	"github.com/muurk/wifid/internal/apiclient"
	"github.com/muurk/wifid/internal/radio"
	"github.com/muurk/wifid/internal/ui"
	"github.com/muurk/wifid/internal/wifi"
)

func TestConnectResult(t *testing.T) {
	tests := []struct {
		status radio.StationStatus
		typ    ui.ResultType
		tip    string
	}{
		{radio.StatusGotIP, ui.ResultSuccess, ""},
		{radio.StatusWrongPassword, ui.ResultFailure, "password"},
		{radio.StatusNoAPFound, ui.ResultFailure, "wifictl scan"},
		{radio.StatusConnectFail, ui.ResultFailure, "closer"},
	}

	for _, tt := range tests {
		r := connectResult("home", &wifi.ConnectResponse{Status: tt.status, IP: "10.0.0.9"})
		if r.Type != tt.typ {
			t.Errorf("%v: Type = %v, want %v", tt.status, r.Type, tt.typ)
		}
		if tt.tip != "" && !strings.Contains(strings.Join(r.Troubleshooting, "\n"), tt.tip) {
			t.Errorf("%v: tips %q missing %q", tt.status, r.Troubleshooting, tt.tip)
		}
	}
}

func TestStatusPanel(t *testing.T) {
	client := apiclient.NewClient("10.0.0.9", 80)
	p := statusPanel(client, &wifi.StatusResponse{StationStatus: radio.StatusIdle, Mode: radio.ModeStation})

	if p.Subtitle != "http://10.0.0.9:80" {
		t.Errorf("Subtitle = %q", p.Subtitle)
	}
	want := []ui.Field{
		{Key: "Status", Value: "Not connected"},
		{Key: "Network", Value: "(none)"},
		{Key: "IP", Value: "(none)"},
		{Key: "Mode", Value: "station"},
		{Key: "Scanning", Value: "false"},
	}
	if len(p.Fields) != len(want) {
		t.Fatalf("Fields = %+v", p.Fields)
	}
	for i := range want {
		if p.Fields[i] != want[i] {
			t.Errorf("Fields[%d] = %+v, want %+v", i, p.Fields[i], want[i])
		}
	}
}

func TestHintForSkipsLocalErrors(t *testing.T) {
	if hintFor(apiclient.NewValidationError("bad ssid")) != "" {
		t.Error("validation errors should not get a daemon hint")
	}
	if hintFor(apiclient.NewHTTPError(500, "x")) == "" {
		t.Error("daemon errors should get a hint")
	}
}
