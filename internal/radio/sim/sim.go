// Package sim provides an in-memory radio.Driver with scripted behaviour.
//
// The simulated radio is used by the handler tests and by `wifid serve
// --radio sim` for running the daemon on machines without a wireless card.
package sim

import (
	"net"
	"sync"
	"time"

	"github.com/muurk/wifid/internal/radio"
)

var _ radio.Driver = (*Radio)(nil)

// Radio is a scripted radio.Driver. It is safe for concurrent use.
type Radio struct {
	mu sync.Mutex

	results   []radio.BSS
	scanErr   error
	scanDelay time.Duration
	pending   []radio.ScanDone

	script []radio.StationStatus
	queue  []radio.StationStatus
	status radio.StationStatus

	cfg  radio.StationConfig
	ip   net.IP
	mode radio.OpMode

	scans       int
	connects    int
	disconnects int
	configs     []radio.StationConfig
}

// Option configures a Radio.
type Option func(*Radio)

// WithResults sets the BSS list returned by every successful scan.
func WithResults(results ...radio.BSS) Option {
	return func(r *Radio) {
		r.results = append([]radio.BSS(nil), results...)
	}
}

// WithScanDelay completes scans automatically after d. With a zero delay
// scans stay pending until CompleteScan is called.
func WithScanDelay(d time.Duration) Option {
	return func(r *Radio) {
		r.scanDelay = d
	}
}

// WithStatusScript sets the statuses reported by successive Status calls
// after each Connect. The last value repeats.
func WithStatusScript(statuses ...radio.StationStatus) Option {
	return func(r *Radio) {
		r.script = append([]radio.StationStatus(nil), statuses...)
	}
}

// WithIP sets the address reported once the station has an IP.
func WithIP(ip net.IP) Option {
	return func(r *Radio) {
		r.ip = ip
	}
}

// WithMode sets the reported operating mode.
func WithMode(mode radio.OpMode) Option {
	return func(r *Radio) {
		r.mode = mode
	}
}

// New creates a simulated radio in station mode.
func New(opts ...Option) *Radio {
	r := &Radio{
		mode: radio.ModeStation,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scan records the call and completes it either after the configured delay
// or when CompleteScan is called.
func (r *Radio) Scan(done radio.ScanDone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) > 0 {
		return radio.ErrScanBusy
	}

	r.scans++
	r.pending = append(r.pending, done)

	if r.scanDelay > 0 {
		time.AfterFunc(r.scanDelay, func() { r.CompleteScan() })
	}
	return nil
}

// CompleteScan delivers results to pending scans and returns how many were
// completed.
func (r *Radio) CompleteScan() int {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	results := append([]radio.BSS(nil), r.results...)
	err := r.scanErr
	r.scanErr = nil
	r.mu.Unlock()

	for _, done := range pending {
		if err != nil {
			done(nil, err)
			continue
		}
		done(results, nil)
	}
	return len(pending)
}

// SetResults replaces the BSS list for future scans.
func (r *Radio) SetResults(results ...radio.BSS) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append([]radio.BSS(nil), results...)
}

// FailNextScan makes the next completed scan report err.
func (r *Radio) FailNextScan(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanErr = err
}

// Connect starts replaying the status script.
func (r *Radio) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connects++
	r.status = radio.StatusConnecting
	r.queue = append([]radio.StationStatus(nil), r.script...)
	return nil
}

// Disconnect drops the association and any remaining script.
func (r *Radio) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disconnects++
	r.status = radio.StatusIdle
	r.queue = nil
	return nil
}

// SetConfig installs cfg and records it.
func (r *Radio) SetConfig(cfg radio.StationConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = cfg
	r.configs = append(r.configs, cfg)
	return nil
}

// Config returns the installed configuration.
func (r *Radio) Config() radio.StationConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Status pops the next scripted status, repeating the last one.
func (r *Radio) Status() radio.StationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) > 0 {
		r.status = r.queue[0]
		r.queue = r.queue[1:]
	}
	return r.status
}

// IP returns the configured address once the station has one.
func (r *Radio) IP() net.IP {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != radio.StatusGotIP {
		return nil
	}
	return r.ip
}

// Mode returns the operating mode.
func (r *Radio) Mode() radio.OpMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Scans returns the number of accepted Scan calls.
func (r *Radio) Scans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

// Connects returns the number of Connect calls.
func (r *Radio) Connects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects
}

// Disconnects returns the number of Disconnect calls.
func (r *Radio) Disconnects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnects
}

// Configs returns every configuration installed so far, oldest first.
func (r *Radio) Configs() []radio.StationConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]radio.StationConfig(nil), r.configs...)
}

// Calls returns the total number of radio side effects (scan, connect,
// disconnect, set-config).
func (r *Radio) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans + r.connects + r.disconnects + len(r.configs)
}
