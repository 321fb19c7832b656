package server

import (
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/wifi"
)

func TestDispatcherLookup(t *testing.T) {
	noop := func(*cgi.Request) cgi.Result { return cgi.Done() }
	d := NewDispatcher([]wifi.Route{
		{Name: "status", Method: "GET", Path: "/wifi/status", Handler: noop},
		{Name: "connect", Method: "POST", Path: "/wifi/connect", Handler: noop},
	})

	tests := []struct {
		method string
		target string
		want   string
	}{
		{"GET", "/wifi/status", "status"},
		{"GET", "/wifi/status?verbose=1", "status"},
		{"POST", "/wifi/connect", "connect"},
		{"GET", "/wifi/connect", "not_found"},
		{"POST", "/wifi/status", "not_found"},
		{"GET", "/wifi/status/extra", "not_found"},
		{"GET", "/", "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			name, h := d.Lookup(httptest.NewRequest(tt.method, tt.target, nil))
			if name != tt.want {
				t.Errorf("Lookup() = %q, want %q", name, tt.want)
			}
			if h == nil {
				t.Error("Lookup() returned a nil handler")
			}
		})
	}
}

func TestConnWriterOrdersChunks(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	w := newConnWriter(srv, "pipe")

	sent := make(chan int, 2)
	w.Send([]byte("HTTP/1.0 200 OK\r\n\r\n"), func() { sent <- 1 })
	w.Send([]byte(`{"status":1}`), func() { sent <- 2 })
	w.Close()

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		var all []byte
		for len(all) < len("HTTP/1.0 200 OK\r\n\r\n")+len(`{"status":1}`) {
			n, err := client.Read(buf)
			if err != nil {
				break
			}
			all = append(all, buf[:n]...)
		}
		got <- string(all)
	}()

	select {
	case s := <-got:
		if s != "HTTP/1.0 200 OK\r\n\r\n"+`{"status":1}` {
			t.Errorf("written = %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out reading from pipe")
	}

	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not finish after Close")
	}

	if first, second := <-sent, <-sent; first != 1 || second != 2 {
		t.Errorf("sent order = %d, %d", first, second)
	}
	if w.Failed() {
		t.Error("Failed() = true")
	}
}

func TestConnWriterReportsWriteFailure(t *testing.T) {
	client, srv := net.Pipe()
	client.Close()

	w := newConnWriter(srv, "pipe")
	called := false
	w.Send([]byte("data"), func() { called = true })

	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not stop after a failed write")
	}
	if !w.Failed() {
		t.Error("Failed() = false after write to closed pipe")
	}
	if called {
		t.Error("sent callback ran for a failed write")
	}

	// Further output is dropped.
	w.Send([]byte("more"), nil)
	w.Close()
}
