package cgi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
)

// ErrClosed is returned when writing to a request that has finished or been
// torn down by the transport.
var ErrClosed = errors.New("cgi: request closed")

// Kind tags the concrete type stored in a request's state slot.
type Kind int

const (
	KindNone Kind = iota
	KindStatus
	KindScan
	KindConnect
	KindProbe
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStatus:
		return "status"
	case KindScan:
		return "scan"
	case KindConnect:
		return "connect"
	case KindProbe:
		return "probe"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is per-request handler state kept between invocations.
type State interface {
	Kind() Kind
}

// Handler is one step of a request. It must not block.
type Handler func(req *Request) Result

// Output receives the bytes a request produces. Send must not block; the
// transport calls sent once p has been written to the client.
type Output interface {
	Send(p []byte, sent func())
	Close()
}

// Request is one inbound HTTP request as seen by a handler. All methods
// must be called from the loop goroutine.
type Request struct {
	id         uint64
	method     string
	path       string
	header     http.Header
	remoteAddr string
	started    time.Time

	body         []byte
	bodyComplete bool

	handler Handler
	loop    *Loop
	out     Output

	state    State
	releases int

	respHeader  http.Header
	statusCode  int
	headersSent bool
	pending     bytes.Buffer
	written     int

	alive        bool
	finished     bool
	awaitingSent bool

	timer    Timer
	timerGen uint64
	links    []*Link
}

// ID returns the loop-assigned request id.
func (r *Request) ID() uint64 { return r.id }

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// Path returns the request path without the query.
func (r *Request) Path() string { return r.path }

// Header returns the inbound request headers.
func (r *Request) Header() http.Header { return r.header }

// RemoteAddr returns the client address.
func (r *Request) RemoteAddr() string { return r.remoteAddr }

// BodyComplete reports whether the whole request body has been received.
func (r *Request) BodyComplete() bool { return r.bodyComplete }

// Body returns the request body. It is only meaningful once BodyComplete
// is true.
func (r *Request) Body() []byte { return r.body }

// Alive reports whether the request can still be written to.
func (r *Request) Alive() bool { return r.alive && !r.finished }

// State returns the attached handler state, or nil.
func (r *Request) State() State { return r.state }

// Attach stores s in the state slot. A request holds at most one state.
func (r *Request) Attach(s State) {
	if r.state != nil {
		logging.Warn("Replacing attached request state",
			zap.Uint64("request_id", r.id),
			zap.Stringer("old", r.state.Kind()),
			zap.Stringer("new", s.Kind()))
	}
	r.state = s
}

// Release clears the state slot. Releasing an empty slot is a no-op.
func (r *Request) Release() {
	if r.state == nil {
		return
	}
	r.state = nil
	r.releases++
}

// Releases returns how many times a state was released on this request.
func (r *Request) Releases() int { return r.releases }

// StatusCode returns the response status, or 0 before WriteStatus.
func (r *Request) StatusCode() int { return r.statusCode }

// BytesWritten returns the number of body bytes written so far.
func (r *Request) BytesWritten() int { return r.written }

// SetHeader sets a response header. It has no effect once headers are sent.
func (r *Request) SetHeader(key, value string) {
	if r.headersSent {
		return
	}
	r.respHeader.Set(key, value)
}

// WriteStatus queues the status line and headers. Only the first call has
// an effect.
func (r *Request) WriteStatus(code int) error {
	if !r.Alive() {
		return ErrClosed
	}
	if r.headersSent {
		return nil
	}
	r.statusCode = code
	r.headersSent = true

	fmt.Fprintf(&r.pending, "HTTP/1.0 %d %s\r\n", code, http.StatusText(code))
	r.respHeader.Set("Connection", "close")
	if err := r.respHeader.Write(&r.pending); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	r.pending.WriteString("\r\n")
	return nil
}

// Write queues body bytes, sending a 200 status first if none was written.
func (r *Request) Write(p []byte) (int, error) {
	if !r.Alive() {
		return 0, ErrClosed
	}
	if !r.headersSent {
		if err := r.WriteStatus(http.StatusOK); err != nil {
			return 0, err
		}
	}
	n, _ := r.pending.Write(p)
	r.written += n
	return n, nil
}

// WriteJSON encodes v and queues it as body bytes.
func (r *Request) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = r.Write(data)
	return err
}

// Abort marks the request dead, disarms its timer and cancels its links.
// The attached state is left in place and is never released.
func (r *Request) Abort() {
	if !r.alive {
		return
	}
	r.alive = false
	r.disarm()
	r.pending.Reset()
	r.cancelLinks()
}

func (r *Request) flush() bool {
	if r.pending.Len() == 0 || r.out == nil {
		r.pending.Reset()
		return false
	}
	p := make([]byte, r.pending.Len())
	copy(p, r.pending.Bytes())
	r.pending.Reset()
	r.out.Send(p, func() { r.loop.Sent(r) })
	return true
}

func (r *Request) finish() {
	if r.finished {
		return
	}
	r.flush()
	r.finished = true
	r.disarm()
	r.cancelLinks()
	if r.out != nil {
		r.out.Close()
	}
}

func (r *Request) disarm() {
	r.timerGen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Request) cancelLinks() {
	links := r.links
	r.links = nil
	for _, l := range links {
		l.Cancel()
	}
}
