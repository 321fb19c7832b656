// Package config provides configuration management for wifid and wifictl.
//
// This package manages a YAML configuration file holding the daemon's
// listener, radio backend, reachability probe and handler timing, plus the
// daemons wifictl has discovered. The file follows OS-specific conventions
// for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/wifid/config.yaml or $HOME/.config/wifid/config.yaml
//   - macOS: $HOME/.config/wifid/config.yaml
//   - Windows: %LOCALAPPDATA%\wifid\config.yaml
//
// Both binaries accept --config to use another path.
//
// # Example
//
//	version: 1
//	listen:
//	  host: ""
//	  port: 80
//	radio:
//	  backend: iwd
//	  interface: wlan0
//	probe:
//	  url: http://www.msftncsi.com/ncsi.txt
//	  timeout: 5s
//	timing:
//	  connect_delay: 10ms
//	  poll_interval: 500ms
//	mdns:
//	  enabled: true
//	  instance: wifid
//	log_level: info
//
// Missing sections keep their defaults.
//
// # Security
//
// WiFi passwords are never written to this file.
package config
