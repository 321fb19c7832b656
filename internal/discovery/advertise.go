package discovery

import (
	"fmt"
	"net"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
)

// Advertisement is a registered mDNS service.
type Advertisement struct {
	server   *zeroconf.Server
	instance string
}

// AdvertiseOptions describes the advertised service.
type AdvertiseOptions struct {
	Instance string
	Port     int
	Path     string // API prefix, published as TXT path=
	Version  string // Published as TXT version=
	Iface    string // Restrict to one interface; empty means all
}

// TXT returns the TXT records for o.
func (o AdvertiseOptions) TXT() []string {
	var txt []string
	if o.Path != "" {
		txt = append(txt, "path="+o.Path)
	}
	if o.Version != "" {
		txt = append(txt, "version="+o.Version)
	}
	return txt
}

// Advertise registers the daemon on the local network.
func Advertise(opts AdvertiseOptions) (*Advertisement, error) {
	if opts.Instance == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if opts.Port <= 0 {
		opts.Port = DefaultPort
	}

	var ifaces []net.Interface
	if opts.Iface != "" {
		ifi, err := net.InterfaceByName(opts.Iface)
		if err != nil {
			return nil, fmt.Errorf("lookup interface %s: %w", opts.Iface, err)
		}
		ifaces = []net.Interface{*ifi}
	}

	server, err := zeroconf.Register(opts.Instance, ServiceType, ServiceDomain, opts.Port, opts.TXT(), ifaces)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("mDNS service registered",
		zap.String("instance", opts.Instance),
		zap.String("service", ServiceType),
		zap.Int("port", opts.Port),
		zap.Strings("txt", opts.TXT()))

	return &Advertisement{server: server, instance: opts.Instance}, nil
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Info("mDNS service withdrawn", zap.String("instance", a.instance))
}
