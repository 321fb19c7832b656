package wifi

import (
	"net"
	"testing"

	"github.com/muurk/wifid/internal/radio"
	"github.com/muurk/wifid/internal/radio/sim"
)

func TestStatusConnected(t *testing.T) {
	r := sim.New(
		sim.WithStatusScript(radio.StatusGotIP),
		sim.WithIP(net.ParseIP("192.168.1.42")),
		sim.WithMode(radio.ModeStationAP),
	)
	_ = r.SetConfig(radio.StationConfig{SSID: "home", Password: "secret123"})
	_ = r.Connect()
	h := newHarness(t, r)

	req, rec := h.start("GET", PathStatus, "", h.api.Status)

	var got StatusResponse
	resp := decode(t, rec, &got)

	if resp.StatusCode != 200 {
		t.Errorf("status code = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	want := StatusResponse{
		Scanning:      false,
		SSID:          "home",
		Mode:          radio.ModeStationAP,
		StationStatus: radio.StatusGotIP,
		IP:            "192.168.1.42",
	}
	if got != want {
		t.Errorf("response = %+v, want %+v", got, want)
	}
	if req.Releases() != 1 || req.State() != nil {
		t.Errorf("Releases() = %d state = %v", req.Releases(), req.State())
	}
	if !rec.Closed() {
		t.Error("response not closed")
	}
}

func TestStatusIdleHasEmptyIP(t *testing.T) {
	r := sim.New(sim.WithIP(net.ParseIP("192.168.1.42")))
	h := newHarness(t, r)

	_, rec := h.start("GET", PathStatus, "", h.api.Status)

	if got := body(t, rec); got != `{"scanning":false,"ssid":"","mode":1,"station_status":0,"ip":""}` {
		t.Errorf("body = %s", got)
	}
}

func TestStatusReportsScanInProgress(t *testing.T) {
	r := sim.New()
	h := newHarness(t, r)
	_, _ = h.registry.StartScan()

	_, rec := h.start("GET", PathStatus, "", h.api.Status)

	var got StatusResponse
	decode(t, rec, &got)
	if !got.Scanning {
		t.Error("scanning = false while a scan is outstanding")
	}
}

func TestStatusWaitsForBody(t *testing.T) {
	h := newHarness(t, sim.New())
	rec, req := startWithoutBody(h, PathStatus, h.api.Status)

	if rec.Sends() != 0 || req.State() != nil {
		t.Fatal("handler acted before the body arrived")
	}

	h.loop.BodyDone(req, nil)
	h.loop.RunPending()

	if !rec.Closed() || req.Releases() != 1 {
		t.Errorf("closed = %v releases = %d", rec.Closed(), req.Releases())
	}
}
