package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/config"
	"github.com/muurk/wifid/internal/discovery"
	"github.com/muurk/wifid/internal/httpclient"
	"github.com/muurk/wifid/internal/logging"
	"github.com/muurk/wifid/internal/server"
	"github.com/muurk/wifid/internal/version"
	"github.com/muurk/wifid/internal/wifi"
)

// Serve command flags. Zero values leave the config file setting alone.
var (
	radioBackend string
	iface        string
	host         string
	port         int
	certPath     string
	keyPath      string
	logLevel     string
	noMDNS       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WiFi management daemon",
	Long: `Start serving the /wifi endpoints.

Settings are read from the config file and can be overridden with flags.
The iwd backend needs access to the system D-Bus; the sim backend runs a
scripted radio with a few fake networks and needs no hardware.

TLS is enabled when both --cert and --key are provided.`,
	Example: `  # Serve on wlan0 with settings from the config file
  wifid serve

  # Serve a different interface on port 8080
  wifid serve --interface wlp2s0 --port 8080

  # Try the API without a wireless card
  wifid serve --radio sim --port 8080 --log-level debug

  # Serve over TLS
  wifid serve --cert cert.pem --key key.pem --port 443`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&radioBackend, "radio", "", "Radio backend (iwd, sim)")
	serveCmd.Flags().StringVar(&iface, "interface", "", "Wireless interface (e.g. wlan0)")
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 0, "Listen port")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Do not advertise the daemon over mDNS")
}

// applyFlags overlays command-line settings on cfg.
func applyFlags(cfg *config.Config) {
	if radioBackend != "" {
		cfg.Radio.Backend = radioBackend
	}
	if iface != "" {
		cfg.Radio.Interface = iface
	}
	if host != "" {
		cfg.Listen.Host = host
	}
	if port != 0 {
		cfg.Listen.Port = port
	}
	if certPath != "" {
		cfg.Listen.Cert = certPath
	}
	if keyPath != "" {
		cfg.Listen.Key = keyPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noMDNS {
		cfg.MDNS.Enabled = false
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	for _, p := range []string{cfg.Listen.Cert, cfg.Listen.Key} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("cannot read %s: %w", p, err)
		}
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Sync()

	logging.Info("Starting wifid",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("radio", cfg.Radio.Backend),
		zap.String("interface", cfg.Radio.Interface))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	driver, closeRadio, err := openRadio(cfg.Radio)
	if err != nil {
		return err
	}
	defer closeRadio()

	loop := cgi.NewLoop()
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Request loop stopped", zap.Error(err))
		}
	}()

	registry := wifi.NewRegistry(driver, loop.Post)
	probe := httpclient.NewClient(loop.Post, httpclient.WithTimeout(cfg.Probe.Timeout))
	api := wifi.New(registry, loop, probe,
		wifi.WithProbeURL(cfg.Probe.URL),
		wifi.WithConnectDelay(cfg.Timing.ConnectDelay),
		wifi.WithPollInterval(cfg.Timing.PollInterval))

	srv, err := server.New(&server.Config{
		Host:     cfg.Listen.Host,
		Port:     cfg.Listen.Port,
		CertPath: cfg.Listen.Cert,
		KeyPath:  cfg.Listen.Key,
	}, loop, api.Routes())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	if cfg.MDNS.Enabled {
		adv, err := discovery.Advertise(discovery.AdvertiseOptions{
			Instance: cfg.MDNS.Instance,
			Port:     listenPort(srv.Addr(), cfg.Listen.Port),
			Path:     "/wifi",
			Version:  version.Version,
		})
		if err != nil {
			logging.Warn("mDNS advertisement failed, continuing without it", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	return srv.Start(ctx)
}

// listenPort returns the bound port, which differs from the configured
// one when port 0 was requested.
func listenPort(addr net.Addr, configured int) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return configured
}
