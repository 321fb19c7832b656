package wifi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/httpclient"
	"github.com/muurk/wifid/internal/logging"
)

// Endpoint paths.
const (
	PathStatus        = "/wifi/status"
	PathScan          = "/wifi/scan"
	PathConnect       = "/wifi/connect"
	PathDisconnect    = "/wifi/disconnect"
	PathCheckInternet = "/wifi/check-internet"
)

const (
	// DefaultProbeURL answers with HTTP 200 when the internet is reachable.
	DefaultProbeURL = "http://www.msftncsi.com/ncsi.txt"
	// DefaultConnectDelay is the pause between accepting a connect request
	// and touching the radio.
	DefaultConnectDelay = 10 * time.Millisecond
	// DefaultPollInterval is how often scan and connect progress is checked.
	DefaultPollInterval = 500 * time.Millisecond

	jsonContentType = "application/json"
)

// API holds the WiFi handlers and what they share.
type API struct {
	registry *Registry
	loop     *cgi.Loop
	client   *httpclient.Client

	probeURL     string
	connectDelay time.Duration
	pollInterval time.Duration
}

// Option configures an API.
type Option func(*API)

// WithProbeURL sets the URL fetched by the internet check.
func WithProbeURL(u string) Option {
	return func(a *API) {
		a.probeURL = u
	}
}

// WithConnectDelay sets the delay before the first connect attempt.
func WithConnectDelay(d time.Duration) Option {
	return func(a *API) {
		a.connectDelay = d
	}
}

// WithPollInterval sets the scan and connect polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(a *API) {
		a.pollInterval = d
	}
}

// New creates the handler set. loop is used to resume requests from
// sub-request callbacks; client issues the internet check.
func New(registry *Registry, loop *cgi.Loop, client *httpclient.Client, opts ...Option) *API {
	a := &API{
		registry:     registry,
		loop:         loop,
		client:       client,
		probeURL:     DefaultProbeURL,
		connectDelay: DefaultConnectDelay,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the shared device registry.
func (a *API) Registry() *Registry {
	return a.registry
}

// Route binds a handler to a method and path.
type Route struct {
	Name    string
	Method  string
	Path    string
	Handler cgi.Handler
}

// Routes returns the WiFi endpoints.
func (a *API) Routes() []Route {
	return []Route{
		{Name: "status", Method: http.MethodGet, Path: PathStatus, Handler: a.Status},
		{Name: "scan", Method: http.MethodGet, Path: PathScan, Handler: a.Scan},
		{Name: "connect", Method: http.MethodPost, Path: PathConnect, Handler: a.Connect},
		{Name: "disconnect", Method: http.MethodPost, Path: PathDisconnect, Handler: a.Disconnect},
		{Name: "check-internet", Method: http.MethodGet, Path: PathCheckInternet, Handler: a.CheckInternet},
	}
}

// beginJSON queues a 200 response with a JSON content type.
func beginJSON(req *cgi.Request) {
	req.SetHeader("Content-Type", jsonContentType)
	if err := req.WriteStatus(http.StatusOK); err != nil {
		logging.Debug("Write status failed", zap.Uint64("request_id", req.ID()), zap.Error(err))
	}
}

func writeJSON(req *cgi.Request, v any) {
	if err := req.WriteJSON(v); err != nil {
		logging.Debug("Write body failed", zap.Uint64("request_id", req.ID()), zap.Error(err))
	}
}

// unexpectedState ends a request whose state slot holds another handler's
// state.
func unexpectedState(req *cgi.Request, handler string) cgi.Result {
	logging.Error("Unexpected request state",
		zap.String("handler", handler),
		zap.Uint64("request_id", req.ID()),
		zap.Stringer("kind", req.State().Kind()))
	req.Release()
	_ = req.WriteStatus(http.StatusInternalServerError)
	return cgi.Done()
}
