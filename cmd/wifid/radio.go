package main

import (
	"fmt"
	"net"
	"time"

	"github.com/muurk/wifid/internal/config"
	"github.com/muurk/wifid/internal/radio"
	"github.com/muurk/wifid/internal/radio/iwd"
	"github.com/muurk/wifid/internal/radio/sim"
)

// openRadio returns the configured driver and a function releasing it.
func openRadio(cfg config.RadioConfig) (radio.Driver, func(), error) {
	switch cfg.Backend {
	case config.BackendIWD:
		r, err := iwd.Open(cfg.Interface)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open iwd station on %s: %w", cfg.Interface, err)
		}
		return r, func() { _ = r.Close() }, nil

	case config.BackendSim:
		return newSimRadio(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown radio backend %q", cfg.Backend)
	}
}

// newSimRadio scripts a radio that finds three networks and joins any of
// them after a couple of polls.
func newSimRadio() *sim.Radio {
	return sim.New(
		sim.WithScanDelay(2*time.Second),
		sim.WithResults(
			radio.BSS{SSID: "wifid-demo", BSSID: "02:00:00:00:00:01", RSSI: -42, Auth: radio.AuthWPA2PSK, Channel: 6},
			radio.BSS{SSID: "wifid-open", BSSID: "02:00:00:00:00:02", RSSI: -67, Auth: radio.AuthOpen, Channel: 11},
			radio.BSS{SSID: "wifid-office", BSSID: "02:00:00:00:00:03", RSSI: -74, Auth: radio.AuthWPA2Enterprise, Channel: 36},
		),
		sim.WithStatusScript(radio.StatusConnecting, radio.StatusConnecting, radio.StatusGotIP),
		sim.WithIP(net.IPv4(192, 168, 50, 23)),
	)
}
