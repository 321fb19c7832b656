package cgi

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
)

// Loop runs every handler invocation, timer firing and completion callback
// on a single goroutine.
//
// Other goroutines hand work to the loop with Post. Transport events
// (Start, BodyDone, Sent, Abort) are posted the same way, so handlers never
// race with each other or with driver callbacks.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	notify chan struct{}

	clock  Clock
	nextID atomic.Uint64

	active map[uint64]*Request
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock replaces the clock used for MoreAfter timers.
func WithClock(c Clock) LoopOption {
	return func(l *Loop) {
		l.clock = c
	}
}

// NewLoop creates an idle loop. Call Run to start processing events.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		notify: make(chan struct{}, 1),
		clock:  RealClock(),
		active: make(map[uint64]*Request),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn to run on the loop goroutine. It never blocks.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	logging.Debug("Request loop started")
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			logging.Debug("Request loop stopped", zap.Int("active", len(l.active)))
			return ctx.Err()
		case <-l.notify:
		}
	}
}

// RunPending runs queued events, including those queued while running, and
// returns how many ran. It must only be called from the goroutine that owns
// the loop; tests use it to step the loop deterministically.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

// NewRequest wraps an inbound request. The request does nothing until
// Start is called.
func (l *Loop) NewRequest(hr *http.Request, out Output) *Request {
	return &Request{
		id:         l.nextID.Add(1),
		method:     hr.Method,
		path:       hr.URL.Path,
		header:     hr.Header,
		remoteAddr: hr.RemoteAddr,
		started:    time.Now(),
		loop:       l,
		out:        out,
		respHeader: make(http.Header),
		alive:      true,
	}
}

// Start begins req with handler h. The first invocation happens with the
// body still incomplete.
func (l *Loop) Start(req *Request, h Handler) {
	l.Post(func() {
		req.handler = h
		l.active[req.id] = req
		l.invoke(req)
	})
}

// BodyDone delivers the complete request body.
func (l *Loop) BodyDone(req *Request, body []byte) {
	l.Post(func() {
		req.body = body
		req.bodyComplete = true
		l.invoke(req)
	})
}

// Sent reports that output handed to the transport has been flushed.
func (l *Loop) Sent(req *Request) {
	l.Post(func() {
		if !req.awaitingSent {
			return
		}
		req.awaitingSent = false
		l.invoke(req)
	})
}

// Abort reports that the client connection is gone.
func (l *Loop) Abort(req *Request) {
	l.Post(func() {
		if !req.alive || req.finished {
			return
		}
		logging.Debug("Request aborted",
			zap.Uint64("request_id", req.id),
			zap.String("path", req.path))
		req.Abort()
		delete(l.active, req.id)
	})
}

// Resume re-invokes req immediately. It must be called on the loop
// goroutine, typically from a nested completion callback.
func (l *Loop) Resume(req *Request) {
	l.invoke(req)
}

// Active returns the number of started requests that have not finished.
func (l *Loop) Active() int {
	return len(l.active)
}

func (l *Loop) invoke(req *Request) {
	if req.handler == nil || !req.Alive() {
		return
	}

	res := req.handler(req)

	logging.Debug("Handler invoked",
		zap.Uint64("request_id", req.id),
		zap.String("path", req.path),
		zap.Stringer("result", res))

	if !req.Alive() {
		return
	}
	l.settle(req, res)
}

func (l *Loop) settle(req *Request, res Result) {
	switch res.kind {
	case kindDone:
		if req.state != nil {
			logging.Warn("Handler finished without releasing state",
				zap.Uint64("request_id", req.id),
				zap.Stringer("kind", req.state.Kind()))
			req.Release()
		}
		req.finish()
		delete(l.active, req.id)
		logging.LogHTTPResponse(req.remoteAddr, req.method, req.path, req.statusCode, req.written, time.Since(req.started))

	case kindMore:
		if req.flush() {
			req.awaitingSent = true
			return
		}
		// Nothing to wait for. Until the body arrives BodyDone is the
		// next trigger.
		if req.bodyComplete {
			l.Post(func() { l.invoke(req) })
		}

	case kindMoreAfter:
		req.flush()
		req.disarm()
		gen := req.timerGen
		req.timer = l.clock.AfterFunc(res.delay, func() {
			l.Post(func() {
				if req.timerGen != gen {
					return
				}
				req.timer = nil
				l.invoke(req)
			})
		})

	case kindAwait:
		req.flush()
	}
}
