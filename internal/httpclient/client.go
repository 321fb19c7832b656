// Package httpclient issues outbound HTTP requests whose progress is
// reported back on the request loop.
//
// A SubRequest runs the network I/O on its own goroutine and delivers each
// state change through the client's Post function, so callbacks run on the
// same goroutine as the handlers that started them.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
	"github.com/muurk/wifid/internal/version"
)

const (
	// DefaultTimeout bounds a whole sub-request, DNS included.
	DefaultTimeout = 5 * time.Second

	// maxBody caps how much of a response body is read.
	maxBody = 4096
)

// State is the progress of a sub-request as seen by its callback.
type State int

const (
	// StateHeaders means the response status and headers arrived.
	StateHeaders State = iota + 1
	// StateBodyEnd means the body has been read in full. Terminal.
	StateBodyEnd
	// StateDNSNotFound means the host name could not be resolved. Terminal.
	StateDNSNotFound
	// StateFailed covers every other transport failure. Terminal.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateHeaders:
		return "headers"
	case StateBodyEnd:
		return "body_end"
	case StateDNSNotFound:
		return "dns_not_found"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further callbacks follow s.
func (s State) Terminal() bool {
	return s == StateBodyEnd || s == StateDNSNotFound || s == StateFailed
}

// Action is returned by a Callback.
type Action int

const (
	// Continue keeps delivering state changes.
	Continue Action = iota
	// Stop cancels the sub-request. No further callbacks are delivered.
	Stop
)

// Callback observes a sub-request. It runs on the goroutine behind Post.
type Callback func(sr *SubRequest, state State) Action

// Resolver looks up host names.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Client creates sub-requests.
type Client struct {
	HTTP     *http.Client
	Resolver Resolver
	Post     func(func())
	Timeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTP = hc
	}
}

// WithResolver replaces the DNS resolver.
func WithResolver(r Resolver) Option {
	return func(c *Client) {
		c.Resolver = r
	}
}

// WithTimeout sets the per sub-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.Timeout = d
	}
}

// NewClient creates a client that delivers callbacks through post.
func NewClient(post func(func()), opts ...Option) *Client {
	c := &Client{
		HTTP: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Resolver: net.DefaultResolver,
		Post:     post,
		Timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New prepares a sub-request reporting to cb. Nothing happens until Get.
func (c *Client) New(cb Callback) *SubRequest {
	ctx, cancel := context.WithCancel(context.Background())
	return &SubRequest{
		client: c,
		cb:     cb,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SubRequest is one outbound request. Fields are only read or written on
// the goroutine behind Client.Post.
type SubRequest struct {
	client *Client
	cb     Callback
	ctx    context.Context
	cancel context.CancelFunc

	url        string
	statusCode int
	header     http.Header
	body       []byte
	err        error
	stopped    bool

	cancelled atomic.Bool
}

// URL returns the requested URL.
func (sr *SubRequest) URL() string { return sr.url }

// StatusCode returns the response status once headers have arrived.
func (sr *SubRequest) StatusCode() int { return sr.statusCode }

// Header returns the response headers once they have arrived.
func (sr *SubRequest) Header() http.Header { return sr.header }

// Body returns the response body after StateBodyEnd.
func (sr *SubRequest) Body() []byte { return sr.body }

// Err returns the failure behind StateDNSNotFound or StateFailed.
func (sr *SubRequest) Err() error { return sr.err }

// Get starts a GET for rawURL. It returns an error only when the URL is
// unusable; everything else is reported to the callback.
func (sr *SubRequest) Get(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("url %q has no host", rawURL)
	}

	sr.url = u.String()
	go sr.run(u)
	return nil
}

// Cancel aborts the sub-request. No callbacks are delivered afterwards.
// It is safe to call from any goroutine and more than once.
func (sr *SubRequest) Cancel() {
	if sr.cancelled.Swap(true) {
		return
	}
	sr.cancel()
	logging.Debug("Sub-request cancelled", zap.String("url", sr.url))
}

func (sr *SubRequest) run(u *url.URL) {
	timeout := sr.client.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(sr.ctx, timeout)
	defer cancel()

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := sr.client.Resolver.LookupHost(ctx, host); err != nil {
			sr.fail(err)
			return
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		sr.fail(err)
		return
	}
	req.Header.Set("User-Agent", version.UserAgent("wifid"))

	resp, err := sr.client.HTTP.Do(req)
	if err != nil {
		sr.fail(err)
		return
	}
	defer resp.Body.Close()

	status, header := resp.StatusCode, resp.Header
	sr.deliver(StateHeaders, func() {
		sr.statusCode = status
		sr.header = header
	})

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		sr.fail(err)
		return
	}
	sr.deliver(StateBodyEnd, func() {
		sr.body = body
	})
}

func (sr *SubRequest) fail(err error) {
	state := classify(err)
	logging.Debug("Sub-request failed",
		zap.String("url", sr.url),
		zap.Stringer("state", state),
		zap.Error(err))
	sr.deliver(state, func() {
		sr.err = err
	})
}

func (sr *SubRequest) deliver(state State, apply func()) {
	if sr.cancelled.Load() {
		return
	}
	sr.client.Post(func() {
		if sr.stopped || sr.cancelled.Load() {
			return
		}
		apply()
		action := sr.cb(sr, state)
		if action == Stop || state.Terminal() {
			sr.stopped = true
			sr.cancel()
		}
	})
}

// classify maps a transport error to a callback state. Any resolver
// failure counts as DNS not found.
func classify(err error) State {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return StateDNSNotFound
	}
	return StateFailed
}
