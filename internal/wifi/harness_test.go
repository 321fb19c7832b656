package wifi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/cgi/cgitest"
	"github.com/muurk/wifid/internal/httpclient"
	"github.com/muurk/wifid/internal/radio/sim"
)

type harness struct {
	t        *testing.T
	loop     *cgi.Loop
	clock    *cgitest.Clock
	radio    *sim.Radio
	registry *Registry
	api      *API
}

func newHarness(t *testing.T, r *sim.Radio, opts ...Option) *harness {
	t.Helper()
	clock := cgitest.NewClock()
	loop := cgi.NewLoop(cgi.WithClock(clock))
	registry := NewRegistry(r, loop.Post)
	client := httpclient.NewClient(loop.Post, httpclient.WithTimeout(2*time.Second))
	return &harness{
		t:        t,
		loop:     loop,
		clock:    clock,
		radio:    r,
		registry: registry,
		api:      New(registry, loop, client, opts...),
	}
}

// start begins a request and delivers its body.
func (h *harness) start(method, path, body string, handler cgi.Handler) (*cgi.Request, *cgitest.Recorder) {
	h.t.Helper()
	rec := cgitest.NewRecorder()
	req := h.loop.NewRequest(httptest.NewRequest(method, path, strings.NewReader(body)), rec)
	h.loop.Start(req, handler)
	h.loop.BodyDone(req, []byte(body))
	h.loop.RunPending()
	return req, rec
}

// advance moves the fake clock and runs what became due.
func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.loop.RunPending()
}

// runUntil drives the loop until done returns true. Used when work
// completes on other goroutines.
func (h *harness) runUntil(done func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			h.t.Fatal("timed out driving the loop")
		}
		if h.loop.RunPending() == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

// decode parses the recorded response and its JSON body into v.
func decode(t *testing.T, rec *cgitest.Recorder, v any) *http.Response {
	t.Helper()
	resp, body, err := rec.Response()
	if err != nil {
		t.Fatalf("Response() error = %v", err)
	}
	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			t.Fatalf("decode body %q: %v", body, err)
		}
	}
	return resp
}

func body(t *testing.T, rec *cgitest.Recorder) string {
	t.Helper()
	_, b, err := rec.Response()
	if err != nil {
		t.Fatalf("Response() error = %v", err)
	}
	return string(b)
}

// startWithoutBody begins a request whose body has not arrived yet.
func startWithoutBody(h *harness, path string, handler cgi.Handler) (*cgitest.Recorder, *cgi.Request) {
	rec := cgitest.NewRecorder()
	req := h.loop.NewRequest(httptest.NewRequest("GET", path, nil), rec)
	h.loop.Start(req, handler)
	h.loop.RunPending()
	return rec, req
}
