package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/config"
	"github.com/muurk/wifid/internal/discovery"
	"github.com/muurk/wifid/internal/logging"
)

// target is a daemon address.
type target struct {
	Name string // Instance name, or the host when given directly
	Host string
	Port int
}

func (t target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Discovery hooks; replaced in tests.
var (
	scanFunc      = discovery.ScanForDevices
	findFunc      = discovery.FindDevice
	quickScanFunc = discovery.QuickScan
)

// progress receives discovery chatter so stdout carries only command output.
var progress io.Writer = os.Stderr

// resolveTarget picks the daemon to talk to. A name remembered in cfg wins;
// an unknown instance name is looked up over mDNS before it is treated as a
// host. With no name, mDNS must find exactly one daemon.
func resolveTarget(cfg *config.Config, name string, port int, timeout time.Duration) (target, error) {
	if name != "" {
		if d := cfg.GetDevice(name); d != nil && d.LastIP != "" {
			p := d.Port
			if p == 0 {
				p = port
			}
			return target{Name: name, Host: d.LastIP, Port: p}, nil
		}
		if looksLikeInstance(name) {
			d, err := findFunc(name, timeout)
			if err == nil {
				fmt.Fprintf(progress, "Found %s at %s\n", d.Instance, net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
				remember(cfg, d)
				return target{Name: d.Instance, Host: d.IP, Port: d.Port}, nil
			}
			logging.Debug("Instance lookup failed, using name as host",
				zap.String("name", name), zap.Error(err))
		}
		return target{Name: name, Host: name, Port: port}, nil
	}

	fmt.Fprintln(progress, "No device specified, looking for wifid daemons...")
	devices, err := scanFunc(timeout)
	if err != nil {
		return target{}, fmt.Errorf("discovery failed: %w", err)
	}

	switch len(devices) {
	case 0:
		return target{}, fmt.Errorf("no daemons found. Use --device to specify an address")
	case 1:
	default:
		fmt.Fprintf(progress, "Found %d daemons:\n", len(devices))
		for i, d := range devices {
			fmt.Fprintf(progress, "%d. %s (%s)\n", i+1, d.Instance, d.IP)
		}
		return target{}, fmt.Errorf("multiple daemons found. Use --device to pick one")
	}

	d := devices[0]
	fmt.Fprintf(progress, "Found %s at %s\n\n", d.Instance, net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
	remember(cfg, d)
	return target{Name: d.Instance, Host: d.IP, Port: d.Port}, nil
}

// looksLikeInstance reports whether name could be an mDNS instance rather
// than an address or a dotted hostname.
func looksLikeInstance(name string) bool {
	return net.ParseIP(name) == nil && !strings.ContainsAny(name, ".:")
}

// refreshDevices updates remembered daemons from a short mDNS scan and
// reports how many answered.
func refreshDevices(cfg *config.Config) (int, error) {
	devices, err := quickScanFunc()
	if err != nil {
		return 0, fmt.Errorf("discovery failed: %w", err)
	}
	for _, d := range devices {
		cfg.UpdateDeviceLastSeen(d.Instance, d.IP, d.Port)
	}
	if len(devices) > 0 {
		if err := cfg.Save(configPath); err != nil {
			return len(devices), fmt.Errorf("failed to remember devices: %w", err)
		}
	}
	return len(devices), nil
}

// remember records d in cfg. Save failures only cost the cache.
func remember(cfg *config.Config, d *discovery.Device) {
	cfg.UpdateDeviceLastSeen(d.Instance, d.IP, d.Port)
	if err := cfg.Save(configPath); err != nil {
		logging.Debug("Failed to save device cache", zap.String("instance", d.Instance), zap.Error(err))
	}
}
