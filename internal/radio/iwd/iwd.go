// Package iwd drives a wireless interface through the iwd daemon over the
// system D-Bus.
//
// Scans complete when the Station "Scanning" property drops back to false.
// Station calls (scan, connect, disconnect) run in order on a worker
// goroutine so a slow iwd never blocks the caller. Connects answer iwd's
// passphrase request through an exported agent. The station IPv4 address is read over
// rtnetlink and kept current with a netlink subscription.
package iwd

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
	"github.com/muurk/wifid/internal/radio"
)

const (
	service          = "net.connman.iwd"
	stationIface     = "net.connman.iwd.Station"
	deviceIface      = "net.connman.iwd.Device"
	networkIface     = "net.connman.iwd.Network"
	bssIface         = "net.connman.iwd.BasicServiceSet"
	diagnosticsIface = "net.connman.iwd.StationDiagnostic"

	propertiesIface = "org.freedesktop.DBus.Properties"
	objectManager   = "org.freedesktop.DBus.ObjectManager"

	// scanTimeout ends a scan whose completion signal never arrives.
	scanTimeout = 15 * time.Second

	// opQueueSize bounds station calls waiting for the worker.
	opQueueSize = 16
)

var errOpQueueFull = errors.New("iwd call queue full")

var _ radio.Driver = (*Radio)(nil)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Radio is a radio.Driver backed by iwd.
type Radio struct {
	conn        *dbus.Conn
	iface       string
	devicePath  dbus.ObjectPath
	stationPath dbus.ObjectPath
	agent       *agent
	addrs       *addressWatcher
	signals     chan *dbus.Signal
	ops         chan func()
	quit        chan struct{}

	mu           sync.Mutex
	cfg          radio.StationConfig
	mode         radio.OpMode
	stationState string
	inFlight     bool
	failure      radio.StationStatus
	connectSeq   uint64
	scanDone     radio.ScanDone
	scanTimer    *time.Timer
}

// Open connects to iwd and binds to the station on iface.
func Open(iface string) (*Radio, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}

	r := &Radio{
		conn:    conn,
		iface:   iface,
		signals: make(chan *dbus.Signal, 16),
		ops:     make(chan func(), opQueueSize),
		quit:    make(chan struct{}),
	}

	if err := r.findStation(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := r.subscribe(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to station signals: %w", err)
	}

	r.agent = newAgent(conn)
	if err := r.agent.register(); err != nil {
		// Known networks still connect without an agent.
		logging.Warn("Failed to register iwd agent", zap.Error(err))
	}

	addrs, err := newAddressWatcher(iface)
	if err != nil {
		logging.Warn("Address tracking unavailable", zap.String("interface", iface), zap.Error(err))
	} else {
		r.addrs = addrs
		go addrs.run()
	}

	go r.runOps()

	logging.Info("iwd radio ready",
		zap.String("interface", iface),
		zap.String("station", string(r.stationPath)),
		zap.String("state", r.stationState))
	return r, nil
}

// Close releases the agent, the netlink sockets and the bus connection.
func (r *Radio) Close() error {
	close(r.quit)
	if err := r.agent.unregister(); err != nil {
		logging.Debug("Agent unregister failed", zap.Error(err))
	}
	r.conn.RemoveSignal(r.signals)
	if r.addrs != nil {
		r.addrs.close()
	}
	return r.conn.Close()
}

// runOps executes queued station calls one at a time.
func (r *Radio) runOps() {
	for {
		select {
		case op := <-r.ops:
			op()
		case <-r.quit:
			return
		}
	}
}

// enqueue hands op to the worker without blocking.
func (r *Radio) enqueue(op func()) error {
	select {
	case <-r.quit:
		return radio.ErrNotReady
	default:
	}
	select {
	case r.ops <- op:
		return nil
	default:
		return errOpQueueFull
	}
}

func (r *Radio) findStation() error {
	var objects managedObjects
	if err := r.conn.Object(service, "/").Call(objectManager+".GetManagedObjects", 0).Store(&objects); err != nil {
		return fmt.Errorf("%w: get managed objects: %v", radio.ErrNotReady, err)
	}

	for path, ifaces := range objects {
		station, ok := ifaces[stationIface]
		if !ok {
			continue
		}
		device := ifaces[deviceIface]
		name, _ := device["Name"].Value().(string)
		if r.iface != "" && name != r.iface {
			continue
		}

		r.stationPath = path
		r.devicePath = path
		r.iface = name
		if mode, ok := device["Mode"].Value().(string); ok {
			r.mode = opMode(mode)
		}
		r.stationState, _ = station["State"].Value().(string)

		if netPath, ok := station["ConnectedNetwork"].Value().(dbus.ObjectPath); ok && netPath != "" {
			if props, err := r.networkProps(netPath); err == nil {
				r.cfg.SSID, _ = props["Name"].Value().(string)
			}
		}
		return nil
	}

	return fmt.Errorf("%w: no iwd station for interface %q", radio.ErrNotReady, r.iface)
}

func (r *Radio) subscribe() error {
	err := r.conn.AddMatchSignal(
		dbus.WithMatchSender(service),
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(r.stationPath),
	)
	if err != nil {
		return err
	}

	r.conn.Signal(r.signals)
	go r.handleSignals()
	return nil
}

func (r *Radio) handleSignals() {
	for sig := range r.signals {
		if sig.Name != propertiesIface+".PropertiesChanged" || sig.Path != r.stationPath || len(sig.Body) < 2 {
			continue
		}
		iface, _ := sig.Body[0].(string)
		changed, _ := sig.Body[1].(map[string]dbus.Variant)
		switch iface {
		case stationIface:
			r.stationChanged(changed)
		case deviceIface:
			if mode, ok := changed["Mode"].Value().(string); ok {
				r.mu.Lock()
				r.mode = opMode(mode)
				r.mu.Unlock()
			}
		}
	}
}

func (r *Radio) stationChanged(changed map[string]dbus.Variant) {
	if state, ok := changed["State"].Value().(string); ok {
		r.mu.Lock()
		r.stationState = state
		r.mu.Unlock()
		logging.Debug("Station state changed", zap.String("state", state))
	}

	if scanning, ok := changed["Scanning"].Value().(bool); ok && !scanning {
		r.finishScan()
	}
}

// Scan asks iwd for a scan and reports ordered networks when it ends.
func (r *Radio) Scan(done radio.ScanDone) error {
	r.mu.Lock()
	if r.scanDone != nil {
		r.mu.Unlock()
		return radio.ErrScanBusy
	}
	r.scanDone = done
	r.scanTimer = time.AfterFunc(scanTimeout, func() {
		logging.Warn("Scan completion signal not received, reading results anyway")
		r.finishScan()
	})
	r.mu.Unlock()

	if err := r.enqueue(r.requestScan); err != nil {
		r.abandonScan()
		return fmt.Errorf("station scan: %w", err)
	}
	return nil
}

// requestScan runs on the worker. A Busy reply means a scan is already
// running and its completion signal will end ours too.
func (r *Radio) requestScan() {
	err := r.conn.Object(service, r.stationPath).Call(stationIface+".Scan", 0).Err
	var dbusErr dbus.Error
	if err == nil || (errors.As(err, &dbusErr) && dbusErr.Name == service+".Busy") {
		return
	}
	if done := r.abandonScan(); done != nil {
		done(nil, fmt.Errorf("station scan: %w", err))
	}
}

// abandonScan clears the pending scan and returns its callback.
func (r *Radio) abandonScan() radio.ScanDone {
	r.mu.Lock()
	defer r.mu.Unlock()
	done := r.scanDone
	r.scanDone = nil
	if r.scanTimer != nil {
		r.scanTimer.Stop()
	}
	return done
}

func (r *Radio) finishScan() {
	done := r.abandonScan()
	if done == nil {
		return
	}
	go func() {
		results, err := r.orderedNetworks()
		done(results, err)
	}()
}

func (r *Radio) orderedNetworks() ([]radio.BSS, error) {
	var ordered []struct {
		Path dbus.ObjectPath
		RSSI int16
	}
	if err := r.conn.Object(service, r.stationPath).Call(stationIface+".GetOrderedNetworks", 0).Store(&ordered); err != nil {
		return nil, fmt.Errorf("get ordered networks: %w", err)
	}

	connectedChannel := r.connectedChannel()

	results := make([]radio.BSS, 0, len(ordered))
	for _, n := range ordered {
		props, err := r.networkProps(n.Path)
		if err != nil {
			logging.Debug("Network properties unavailable", zap.String("path", string(n.Path)), zap.Error(err))
			continue
		}

		bss := radio.BSS{RSSI: rssiDBm(n.RSSI)}
		bss.SSID, _ = props["Name"].Value().(string)
		security, _ := props["Type"].Value().(string)
		bss.Auth = authMode(security)
		if connected, _ := props["Connected"].Value().(bool); connected {
			bss.Channel = connectedChannel
		}
		if sets, ok := props["ExtendedServiceSet"].Value().([]dbus.ObjectPath); ok && len(sets) > 0 {
			bss.BSSID = r.bssAddress(sets[0])
		}
		results = append(results, bss)
	}
	return results, nil
}

func (r *Radio) networkProps(path dbus.ObjectPath) (map[string]dbus.Variant, error) {
	var props map[string]dbus.Variant
	err := r.conn.Object(service, path).Call(propertiesIface+".GetAll", 0, networkIface).Store(&props)
	return props, err
}

func (r *Radio) bssAddress(path dbus.ObjectPath) string {
	v, err := r.conn.Object(service, path).GetProperty(bssIface + ".Address")
	if err != nil {
		return ""
	}
	addr, _ := v.Value().(string)
	return addr
}

// connectedChannel returns the channel of the current association, or 0.
// iwd only exposes frequencies for the connected BSS.
func (r *Radio) connectedChannel() int {
	var diag map[string]dbus.Variant
	if err := r.conn.Object(service, r.stationPath).Call(diagnosticsIface+".GetDiagnostics", 0).Store(&diag); err != nil {
		return 0
	}
	freq, _ := diag["Frequency"].Value().(uint32)
	return radio.FrequencyToChannel(int(freq))
}

// Connect joins the network named in the installed configuration. It
// returns immediately; progress is visible through Status.
func (r *Radio) Connect() error {
	r.mu.Lock()
	cfg := r.cfg
	r.connectSeq++
	seq := r.connectSeq
	r.inFlight = true
	r.failure = radio.StatusIdle
	r.mu.Unlock()

	if cfg.SSID == "" {
		r.connectDone(seq, radio.StatusNoAPFound)
		return nil
	}

	if err := r.enqueue(func() { r.connect(seq, cfg) }); err != nil {
		r.connectDone(seq, radio.StatusConnectFail)
		return fmt.Errorf("network connect: %w", err)
	}
	return nil
}

func (r *Radio) connect(seq uint64, cfg radio.StationConfig) {
	if r.superseded(seq) {
		return
	}

	path, err := r.findNetwork(cfg.SSID)
	if err != nil {
		logging.Info("Network not visible", zap.String("ssid", cfg.SSID), zap.Error(err))
		r.connectDone(seq, radio.StatusNoAPFound)
		return
	}

	if cfg.Password != "" {
		r.agent.setPending(path, cfg.Password)
	}

	err = r.conn.Object(service, path).Call(networkIface+".Connect", 0).Err
	asked := r.agent.takeAsked(path)
	if err != nil {
		var dbusErr dbus.Error
		name := ""
		if errors.As(err, &dbusErr) {
			name = dbusErr.Name
		}
		status := connectFailure(name, asked)
		logging.Info("Connect failed",
			zap.String("ssid", cfg.SSID),
			zap.String("error", name),
			zap.Stringer("status", status))
		r.connectDone(seq, status)
		return
	}

	logging.Info("Associated", zap.String("ssid", cfg.SSID))
	r.connectDone(seq, radio.StatusIdle)
}

// connectDone records the outcome of attempt seq unless a newer attempt or
// a disconnect superseded it.
func (r *Radio) connectDone(seq uint64, failure radio.StationStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.connectSeq {
		return
	}
	r.inFlight = false
	r.failure = failure
}

func (r *Radio) superseded(seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return seq != r.connectSeq
}

func (r *Radio) findNetwork(ssid string) (dbus.ObjectPath, error) {
	var objects managedObjects
	if err := r.conn.Object(service, "/").Call(objectManager+".GetManagedObjects", 0).Store(&objects); err != nil {
		return "", fmt.Errorf("get managed objects: %w", err)
	}
	for path, ifaces := range objects {
		props, ok := ifaces[networkIface]
		if !ok {
			continue
		}
		if dev, _ := props["Device"].Value().(dbus.ObjectPath); dev != r.devicePath {
			continue
		}
		if name, _ := props["Name"].Value().(string); name == ssid {
			return path, nil
		}
	}
	return "", fmt.Errorf("network %q not found", ssid)
}

// Disconnect drops the current association and any attempt in progress.
// The D-Bus call is queued ahead of any later Connect.
func (r *Radio) Disconnect() error {
	r.mu.Lock()
	r.connectSeq++
	r.inFlight = false
	r.failure = radio.StatusIdle
	r.mu.Unlock()

	if err := r.enqueue(r.disconnect); err != nil {
		return fmt.Errorf("station disconnect: %w", err)
	}
	return nil
}

func (r *Radio) disconnect() {
	err := r.conn.Object(service, r.stationPath).Call(stationIface+".Disconnect", 0).Err
	var dbusErr dbus.Error
	if err != nil && errors.As(err, &dbusErr) && dbusErr.Name == service+".NotConnected" {
		return
	}
	if err != nil {
		logging.Warn("Station disconnect failed", zap.Error(err))
	}
}

// SetConfig stores the configuration used by the next Connect.
func (r *Radio) SetConfig(cfg radio.StationConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	if cfg.Empty() {
		r.agent.clear()
	}
	return nil
}

// Config returns the stored configuration.
func (r *Radio) Config() radio.StationConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Status derives the station status from iwd state, the last connect
// outcome and the interface address.
func (r *Radio) Status() radio.StationStatus {
	hasIP := r.IP() != nil
	r.mu.Lock()
	defer r.mu.Unlock()
	return stationStatus(r.stationState, r.inFlight, r.failure, hasIP)
}

// IP returns the IPv4 address of the interface.
func (r *Radio) IP() net.IP {
	if r.addrs == nil {
		return nil
	}
	return r.addrs.IP()
}

// Mode returns the device operating mode.
func (r *Radio) Mode() radio.OpMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}
