package wifi

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
	"github.com/muurk/wifid/internal/radio"
)

// Registry is the process-wide WiFi state shared by every handler.
//
// It is not safe for concurrent use. All methods run on the request loop;
// driver callbacks are handed back to the loop through post.
type Registry struct {
	driver radio.Driver
	post   func(func())

	scanning   bool
	connecting int
	station    radio.StationConfig
	mode       radio.OpMode
	status     radio.StationStatus
	catalog    *Catalog
}

// NewRegistry creates an idle registry over driver. post must run its
// argument on the request loop.
func NewRegistry(driver radio.Driver, post func(func())) *Registry {
	return &Registry{
		driver: driver,
		post:   post,
		mode:   driver.Mode(),
	}
}

// Driver returns the radio the registry controls.
func (r *Registry) Driver() radio.Driver { return r.driver }

// Scanning reports whether a radio scan is outstanding.
func (r *Registry) Scanning() bool { return r.scanning }

// Connecting reports whether any connect request is polling the radio.
func (r *Registry) Connecting() bool { return r.connecting > 0 }

// Station returns the station configuration last seen or installed.
func (r *Registry) Station() radio.StationConfig { return r.station }

// Mode returns the last known operating mode.
func (r *Registry) Mode() radio.OpMode { return r.mode }

// LastStatus returns the last station status read from the radio.
func (r *Registry) LastStatus() radio.StationStatus { return r.status }

// Catalog returns the latest scan results, or nil if no scan has completed.
func (r *Registry) Catalog() *Catalog { return r.catalog }

// Refresh re-reads configuration, mode and status from the driver.
func (r *Registry) Refresh() {
	r.station = r.driver.Config()
	r.mode = r.driver.Mode()
	r.status = r.driver.Status()
}

// PollStatus reads the current station status from the driver.
func (r *Registry) PollStatus() radio.StationStatus {
	r.status = r.driver.Status()
	return r.status
}

// IP returns the station address as a dotted quad when the station is
// connected, and "" otherwise.
func (r *Registry) IP(status radio.StationStatus) string {
	if status != radio.StatusGotIP {
		return ""
	}
	return formatIP(r.driver.IP())
}

// StartScan issues a radio scan unless one is already outstanding. It
// reports whether this call started the scan.
func (r *Registry) StartScan() (bool, error) {
	if r.scanning {
		return false, nil
	}

	r.scanning = true
	err := r.driver.Scan(func(results []radio.BSS, err error) {
		r.post(func() { r.scanDone(results, err) })
	})
	if err != nil {
		r.scanning = false
		return false, fmt.Errorf("start scan: %w", err)
	}

	logging.Debug("Scan started")
	return true, nil
}

func (r *Registry) scanDone(results []radio.BSS, err error) {
	defer func() { r.scanning = false }()

	if err != nil {
		logging.Warn("Scan failed, keeping previous results",
			zap.Error(err),
			zap.Int("previous_count", r.catalog.Len()))
		return
	}

	r.catalog = NewCatalog(results)
	logging.Info("Scan complete",
		zap.Time("scanned_at", r.catalog.ScannedAt()),
		zap.Int("found", len(results)),
		zap.Int("visible", r.catalog.Len()),
		zap.Int("hidden", r.catalog.Dropped()))
}

// Connect installs a new station configuration and starts association.
func (r *Registry) Connect(ssid, password string) error {
	r.station = radio.StationConfig{SSID: ssid, Password: password}

	if err := r.driver.Disconnect(); err != nil {
		logging.Debug("Disconnect before connect failed", zap.Error(err))
	}
	if err := r.driver.SetConfig(r.station); err != nil {
		return fmt.Errorf("set station config: %w", err)
	}
	if err := r.driver.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	r.connecting++
	logging.Info("Connecting to network",
		zap.String("ssid", ssid),
		zap.Int("password_len", len(password)))
	return nil
}

// FinishConnect ends one connect started by Connect.
func (r *Registry) FinishConnect() {
	if r.connecting > 0 {
		r.connecting--
	}
}

// ResetStation drops the association and installs an empty configuration.
func (r *Registry) ResetStation() error {
	r.station = radio.StationConfig{}

	if err := r.driver.Disconnect(); err != nil {
		logging.Debug("Disconnect failed", zap.Error(err))
	}
	if err := r.driver.SetConfig(r.station); err != nil {
		return fmt.Errorf("clear station config: %w", err)
	}
	return nil
}

func formatIP(ip net.IP) string {
	if ip == nil {
		return ""
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}
