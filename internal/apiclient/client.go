package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
	"github.com/muurk/wifid/internal/version"
	"github.com/muurk/wifid/internal/wifi"
)

const (
	// DefaultTimeout is the timeout for quick requests (status, disconnect, check-internet)
	DefaultTimeout = 10 * time.Second

	// DefaultLongTimeout is the timeout for scan and connect, which only
	// answer once the radio has finished
	DefaultLongTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// maxResponseSize bounds the bytes read from a response
	maxResponseSize = 64 << 10
)

// Client talks to a wifid daemon.
type Client struct {
	// BaseURL is the base URL for the daemon (e.g., "http://192.168.4.16:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client. Per-request deadlines come
	// from Timeout and LongTimeout.
	HTTPClient *http.Client

	// Timeout applies to status, disconnect and check-internet
	Timeout time.Duration

	// LongTimeout applies to scan and connect
	LongTimeout time.Duration

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool
}

// NewClient creates a new client
// ip: Daemon IP address (e.g., "192.168.4.16")
// port: Daemon HTTP port (typically 80)
func NewClient(ip string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(ip, strconv.Itoa(port)))
}

// NewClientWithURL creates a new client with a full base URL
// baseURL: Full base URL (e.g., "http://192.168.4.16:80")
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               baseURL,
		HTTPClient:            &http.Client{},
		Timeout:               DefaultTimeout,
		LongTimeout:           DefaultLongTimeout,
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the quick request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Status returns the daemon's radio status.
func (c *Client) Status() (*wifi.StatusResponse, error) {
	var resp wifi.StatusResponse
	if err := c.do(http.MethodGet, wifi.PathStatus, nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan asks the daemon for a fresh scan and returns the visible networks.
func (c *Client) Scan() (*wifi.ScanResponse, error) {
	var resp wifi.ScanResponse
	if err := c.do(http.MethodGet, wifi.PathScan, nil, &resp, true); err != nil {
		return nil, err
	}
	if resp.AP == nil {
		resp.AP = []wifi.AccessPoint{}
	}
	return &resp, nil
}

// Connect joins ssid and returns the outcome reported by the daemon.
// Inputs are validated before anything is sent.
func (c *Client) Connect(ssid, pwd string) (*wifi.ConnectResponse, error) {
	if err := ValidateSSID(ssid); err != nil {
		return nil, err
	}
	if err := ValidatePassword(pwd); err != nil {
		return nil, err
	}

	body := wifi.ConnectRequest{SSID: ssid, Password: pwd}
	var resp wifi.ConnectResponse
	if err := c.do(http.MethodPost, wifi.PathConnect, body, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Disconnect drops the daemon's association and clears its stored network.
func (c *Client) Disconnect() error {
	return c.do(http.MethodPost, wifi.PathDisconnect, nil, nil, false)
}

// CheckInternet asks the daemon whether it can reach the internet.
func (c *Client) CheckInternet() (*wifi.InternetResponse, error) {
	var resp wifi.InternetResponse
	if err := c.do(http.MethodGet, wifi.PathCheckInternet, nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do runs one API call with retries. in is JSON-encoded when non-nil; out
// receives the decoded response when non-nil. Long calls use LongTimeout
// and are not retried after a timeout.
func (c *Client) do(method, path string, in, out any, long bool) error {
	timeout := c.Timeout
	if long {
		timeout = c.LongTimeout
	}

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return NewValidationError(fmt.Sprintf("failed to encode request: %v", err))
		}
	}

	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr))
			time.Sleep(currentDelay)

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := c.attempt(method, path, payload, out, timeout)
		if err == nil {
			return nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if t, _ := typeOf(err); long && t == ErrTypeTimeout {
			return err
		}
	}

	return lastErr
}

// attempt performs a single request
func (c *Client) attempt(method, path string, payload []byte, out any, timeout time.Duration) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return NewValidationError(fmt.Sprintf("invalid request URL: %v", err))
	}
	req.Header.Set("User-Agent", version.UserAgent("wifictl"))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		classified := ClassifyNetworkError(err, c.host())
		classified.Message = fmt.Sprintf("%s %s failed", method, path)
		return classified
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewParseError("failed to parse JSON response", err)
	}
	return nil
}

func (c *Client) host() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.BaseURL
	}
	return u.Hostname()
}
