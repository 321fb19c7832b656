package wifi

import (
	"net"
	"strings"
	"testing"

	"github.com/muurk/wifid/internal/radio"
	"github.com/muurk/wifid/internal/radio/sim"
)

// driveConnect advances through the connect delay and n poll intervals.
func driveConnect(h *harness, polls int) {
	h.advance(DefaultConnectDelay)
	for i := 0; i < polls; i++ {
		h.advance(DefaultPollInterval)
	}
}

func TestConnectScenario(t *testing.T) {
	r := sim.New(
		sim.WithStatusScript(radio.StatusConnecting, radio.StatusConnecting, radio.StatusConnecting, radio.StatusGotIP),
		sim.WithIP(net.ParseIP("192.168.1.42")),
	)
	h := newHarness(t, r)

	req, rec := h.start("POST", PathConnect, `{"ssid":"home","pwd":"secret123"}`, h.api.Connect)

	if r.Calls() != 0 {
		t.Fatal("radio touched before the connect delay")
	}

	h.advance(DefaultConnectDelay)
	if r.Connects() != 1 || !h.registry.Connecting() {
		t.Fatalf("connects = %d connecting = %v", r.Connects(), h.registry.Connecting())
	}
	if cfg := r.Config(); cfg.SSID != "home" || cfg.Password != "secret123" || cfg.BSSIDSet {
		t.Errorf("installed config = %+v", cfg)
	}

	for i := 0; i < 3; i++ {
		h.advance(DefaultPollInterval)
		if rec.Closed() {
			t.Fatalf("response finished while still connecting (poll %d)", i+1)
		}
	}
	h.advance(DefaultPollInterval)

	if !rec.Closed() {
		t.Fatal("response not finished after status 5")
	}
	if got := body(t, rec); got != `{"status":5,"ip":"192.168.1.42"}` {
		t.Errorf("body = %s", got)
	}
	if req.Releases() != 1 {
		t.Errorf("Releases() = %d, want 1", req.Releases())
	}
	if h.registry.Connecting() {
		t.Error("connecting flag still set")
	}
	if h.registry.Station().SSID != "home" {
		t.Errorf("station ssid = %q", h.registry.Station().SSID)
	}
}

func TestConnectAbortedWhilePolling(t *testing.T) {
	r := sim.New(sim.WithStatusScript(radio.StatusConnecting))
	h := newHarness(t, r)

	req, rec := h.start("POST", PathConnect, `{"ssid":"home","pwd":"secret123"}`, h.api.Connect)
	driveConnect(h, 1)
	if !h.registry.Connecting() {
		t.Fatal("connecting flag not set while polling")
	}

	h.loop.Abort(req)
	h.loop.RunPending()

	if req.Alive() {
		t.Error("request still alive after abort")
	}
	if h.registry.Connecting() {
		t.Error("connecting flag left set by aborted request")
	}
	if rec.Closed() {
		t.Error("aborted request should not write a response")
	}
	h.advance(DefaultPollInterval)
	if rec.Closed() {
		t.Error("aborted request resumed by its poll timer")
	}
}

func TestConnectOverlappingRequests(t *testing.T) {
	r := sim.New(sim.WithStatusScript(radio.StatusConnecting))
	h := newHarness(t, r)

	first, _ := h.start("POST", PathConnect, `{"ssid":"home","pwd":"secret123"}`, h.api.Connect)
	h.start("POST", PathConnect, `{"ssid":"office","pwd":"secret456"}`, h.api.Connect)
	h.advance(DefaultConnectDelay)

	h.loop.Abort(first)
	h.loop.RunPending()

	if !h.registry.Connecting() {
		t.Error("second request still polling but connecting flag cleared")
	}
}

func TestConnectFailureResetsConfig(t *testing.T) {
	for _, status := range []radio.StationStatus{
		radio.StatusWrongPassword,
		radio.StatusNoAPFound,
		radio.StatusConnectFail,
	} {
		t.Run(status.String(), func(t *testing.T) {
			r := sim.New(sim.WithStatusScript(radio.StatusConnecting, status))
			h := newHarness(t, r)

			req, rec := h.start("POST", PathConnect, `{"ssid":"home","pwd":"wrong"}`, h.api.Connect)
			driveConnect(h, 2)

			if !rec.Closed() {
				t.Fatal("response not finished")
			}

			var got ConnectResponse
			decode(t, rec, &got)
			if got.Status != status || got.IP != "" {
				t.Errorf("response = %+v", got)
			}

			if !r.Config().Empty() {
				t.Errorf("driver config not reset: %+v", r.Config())
			}
			if !h.registry.Station().Empty() {
				t.Error("registry station config not reset")
			}
			configs := r.Configs()
			if len(configs) != 2 || !configs[1].Empty() {
				t.Errorf("config history = %+v", configs)
			}
			if r.Disconnects() != 2 {
				t.Errorf("disconnects = %d, want 2", r.Disconnects())
			}
			if r.Connects() != 1 {
				t.Errorf("connects = %d, want 1 (no retry)", r.Connects())
			}
			if req.Releases() != 1 {
				t.Errorf("Releases() = %d, want 1", req.Releases())
			}
		})
	}
}

func TestConnectIdleStatusIsReported(t *testing.T) {
	r := sim.New(sim.WithStatusScript(radio.StatusIdle))
	h := newHarness(t, r)

	_, rec := h.start("POST", PathConnect, `{"ssid":"home","pwd":""}`, h.api.Connect)
	driveConnect(h, 1)

	if got := body(t, rec); got != `{"status":0,"ip":""}` {
		t.Errorf("body = %s", got)
	}
}

func TestConnectRejectsBadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing pwd", `{"ssid":"home"}`},
		{"missing ssid", `{"pwd":"secret123"}`},
		{"empty body", ``},
		{"not json", `ssid=home&pwd=secret123`},
		{"array", `["home","secret123"]`},
		{"null", `null`},
		{"ssid not a string", `{"ssid":42,"pwd":"secret123"}`},
		{"pwd not a string", `{"ssid":"home","pwd":null}`},
		{"empty ssid", `{"ssid":"","pwd":"secret123"}`},
		{"ssid too long", `{"ssid":"` + strings.Repeat("s", 33) + `","pwd":"secret123"}`},
		{"pwd too long", `{"ssid":"home","pwd":"` + strings.Repeat("p", 65) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sim.New()
			h := newHarness(t, r)

			req, rec := h.start("POST", PathConnect, tt.body, h.api.Connect)

			if !rec.Closed() {
				t.Fatal("response not finished")
			}
			resp := decode(t, rec, nil)
			if resp.StatusCode != 400 {
				t.Errorf("status code = %d, want 400", resp.StatusCode)
			}
			if r.Calls() != 0 {
				t.Errorf("radio calls = %d, want 0", r.Calls())
			}
			if req.Releases() != 1 {
				t.Errorf("Releases() = %d, want 1", req.Releases())
			}
			if h.clock.Pending() != 0 {
				t.Error("timer left armed after rejection")
			}
		})
	}
}

func TestConnectAcceptsLimits(t *testing.T) {
	ssid := strings.Repeat("s", radio.MaxSSIDLen)
	pwd := strings.Repeat("p", radio.MaxPasswordLen)

	r := sim.New(sim.WithStatusScript(radio.StatusNoAPFound))
	h := newHarness(t, r)

	h.start("POST", PathConnect, `{"ssid":"`+ssid+`","pwd":"`+pwd+`"}`, h.api.Connect)
	h.advance(DefaultConnectDelay)

	configs := r.Configs()
	if len(configs) != 1 || configs[0].SSID != ssid || configs[0].Password != pwd {
		t.Errorf("installed configs = %+v", configs)
	}
}

func TestParseConnectRequest(t *testing.T) {
	got, err := parseConnectRequest([]byte(`{"ssid":"home","pwd":"secret123","extra":true}`))
	if err != nil {
		t.Fatalf("parseConnectRequest() error = %v", err)
	}
	if got.SSID != "home" || got.Password != "secret123" {
		t.Errorf("got %+v", got)
	}
}
