package config

import "time"

// Config represents the entire configuration file. The daemon reads the
// service sections; wifictl keeps the devices it has talked to.
type Config struct {
	Version  int                `yaml:"version"`
	Listen   ListenConfig       `yaml:"listen"`
	Radio    RadioConfig        `yaml:"radio"`
	Probe    ProbeConfig        `yaml:"probe"`
	Timing   TimingConfig       `yaml:"timing"`
	MDNS     MDNSConfig         `yaml:"mdns"`
	LogLevel string             `yaml:"log_level"`
	Devices  map[string]*Device `yaml:"devices,omitempty"` // Keyed by mDNS instance name
}

// ListenConfig is the HTTP listener. TLS is used when both Cert and Key
// are set.
type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Cert string `yaml:"cert,omitempty"`
	Key  string `yaml:"key,omitempty"`
}

// RadioConfig selects the radio backend.
type RadioConfig struct {
	Backend   string `yaml:"backend"`   // "iwd" or "sim"
	Interface string `yaml:"interface"` // Wireless interface, e.g. wlan0
}

// ProbeConfig configures the internet reachability check.
type ProbeConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// TimingConfig holds the handler scheduling delays.
type TimingConfig struct {
	ConnectDelay time.Duration `yaml:"connect_delay"` // Pause between answering and starting association
	PollInterval time.Duration `yaml:"poll_interval"` // Scan and connect polling period
}

// MDNSConfig controls service advertisement.
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
}

// Device is what wifictl remembers about a discovered daemon.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastIP   string    `yaml:"last_ip,omitempty"`   // Last known IP address
	Port     int       `yaml:"port,omitempty"`      // Last known port
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Radio backends.
const (
	BackendIWD = "iwd"
	BackendSim = "sim"
)

// Defaults.
const (
	DefaultPort         = 80
	DefaultInterface    = "wlan0"
	DefaultProbeURL     = "http://www.msftncsi.com/ncsi.txt"
	DefaultProbeTimeout = 5 * time.Second
	DefaultConnectDelay = 10 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond
	DefaultInstance     = "wifid"
	DefaultLogLevel     = "info"
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Version: 1,
		Listen: ListenConfig{
			Port: DefaultPort,
		},
		Radio: RadioConfig{
			Backend:   BackendIWD,
			Interface: DefaultInterface,
		},
		Probe: ProbeConfig{
			URL:     DefaultProbeURL,
			Timeout: DefaultProbeTimeout,
		},
		Timing: TimingConfig{
			ConnectDelay: DefaultConnectDelay,
			PollInterval: DefaultPollInterval,
		},
		MDNS: MDNSConfig{
			Enabled:  true,
			Instance: DefaultInstance,
		},
		LogLevel: DefaultLogLevel,
		Devices:  make(map[string]*Device),
	}
}

// GetDevice retrieves a remembered device by instance name or nickname.
// Returns nil if no device matches.
func (c *Config) GetDevice(name string) *Device {
	if d, ok := c.Devices[name]; ok {
		return d
	}
	for _, d := range c.Devices {
		if d.Nickname != "" && d.Nickname == name {
			return d
		}
	}
	return nil
}

// EnsureDevice ensures a device entry exists for instance and returns it.
func (c *Config) EnsureDevice(instance string) *Device {
	if c.Devices == nil {
		c.Devices = make(map[string]*Device)
	}

	if device, exists := c.Devices[instance]; exists {
		return device
	}

	device := &Device{}
	c.Devices[instance] = device
	return device
}

// UpdateDeviceLastSeen updates the last seen timestamp and address for a device.
func (c *Config) UpdateDeviceLastSeen(instance, ip string, port int) {
	device := c.EnsureDevice(instance)
	device.LastSeen = time.Now()
	device.LastIP = ip
	device.Port = port
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (c *Config) SetDeviceNickname(instance, nickname string) {
	device := c.EnsureDevice(instance)
	device.Nickname = nickname
}
