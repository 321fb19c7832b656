package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "wifid") {
		t.Errorf("GetConfigDir() = %v, should contain 'wifid'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDirHonoursXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "wifid"); got != want {
		t.Errorf("GetConfigDir() = %q, want %q", got, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != 1 {
		t.Errorf("Default().Version = %v, want 1", cfg.Version)
	}
	if cfg.Listen.Port != 80 {
		t.Errorf("Default().Listen.Port = %d, want 80", cfg.Listen.Port)
	}
	if cfg.Radio.Backend != BackendIWD || cfg.Radio.Interface != "wlan0" {
		t.Errorf("Default().Radio = %+v", cfg.Radio)
	}
	if cfg.Timing.ConnectDelay != 10*time.Millisecond {
		t.Errorf("Default().Timing.ConnectDelay = %v", cfg.Timing.ConnectDelay)
	}
	if cfg.Timing.PollInterval != 500*time.Millisecond {
		t.Errorf("Default().Timing.PollInterval = %v", cfg.Timing.PollInterval)
	}
	if cfg.Probe.Timeout != 5*time.Second {
		t.Errorf("Default().Probe.Timeout = %v", cfg.Probe.Timeout)
	}
	if cfg.Devices == nil {
		t.Error("Default().Devices should not be nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen.Port != DefaultPort {
		t.Errorf("Listen.Port = %d, want default", cfg.Listen.Port)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
listen:
  port: 8080
radio:
  backend: sim
timing:
  poll_interval: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Listen.Port != 8080 {
		t.Errorf("Listen.Port = %d, want 8080", cfg.Listen.Port)
	}
	if cfg.Radio.Backend != BackendSim {
		t.Errorf("Radio.Backend = %q, want sim", cfg.Radio.Backend)
	}
	if cfg.Timing.PollInterval != 250*time.Millisecond {
		t.Errorf("Timing.PollInterval = %v, want 250ms", cfg.Timing.PollInterval)
	}
	if cfg.Timing.ConnectDelay != DefaultConnectDelay {
		t.Errorf("Timing.ConnectDelay = %v, want default", cfg.Timing.ConnectDelay)
	}
	if cfg.Probe.URL != DefaultProbeURL {
		t.Errorf("Probe.URL = %q, want default", cfg.Probe.URL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad version", "version: 2\n", "unsupported config version"},
		{"bad yaml", "version: [1\n", "failed to parse"},
		{"bad backend", "version: 1\nradio:\n  backend: nl80211\n", "radio.backend"},
		{"bad port", "version: 1\nlisten:\n  port: 70000\n", "listen.port"},
		{"cert without key", "version: 1\nlisten:\n  cert: /etc/wifid/cert.pem\n", "listen.cert"},
		{"ftp probe", "version: 1\nprobe:\n  url: ftp://example.com/\n", "probe.url"},
		{"zero poll", "version: 1\ntiming:\n  poll_interval: 0s\n", "poll_interval"},
		{"bad log level", "version: 1\nlog_level: loud\n", "log_level"},
		{"mdns without instance", "version: 1\nmdns:\n  enabled: true\n  instance: \"\"\n", "mdns.instance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Listen.Port = 8443
	cfg.Timing.PollInterval = 750 * time.Millisecond
	cfg.SetDeviceNickname("wifid-kitchen", "Kitchen")
	cfg.UpdateDeviceLastSeen("wifid-kitchen", "192.168.1.50", 80)

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Listen.Port != 8443 {
		t.Errorf("Listen.Port = %d, want 8443", loaded.Listen.Port)
	}
	if loaded.Timing.PollInterval != 750*time.Millisecond {
		t.Errorf("Timing.PollInterval = %v, want 750ms", loaded.Timing.PollInterval)
	}

	dev := loaded.GetDevice("Kitchen")
	if dev == nil {
		t.Fatal("device not found by nickname")
	}
	if dev.LastIP != "192.168.1.50" || dev.Port != 80 {
		t.Errorf("device = %+v", dev)
	}
}

func TestEnsureDevice(t *testing.T) {
	cfg := &Config{}

	d1 := cfg.EnsureDevice("wifid-a")
	d2 := cfg.EnsureDevice("wifid-a")
	if d1 != d2 {
		t.Error("EnsureDevice() should return the existing entry")
	}
	if len(cfg.Devices) != 1 {
		t.Errorf("len(Devices) = %d, want 1", len(cfg.Devices))
	}

	if cfg.GetDevice("wifid-a") != d1 {
		t.Error("GetDevice() by instance name failed")
	}
	if cfg.GetDevice("missing") != nil {
		t.Error("GetDevice() should return nil for unknown devices")
	}
}

func TestUpdateDeviceLastSeen(t *testing.T) {
	cfg := Default()
	before := time.Now()

	cfg.UpdateDeviceLastSeen("wifid-b", "10.0.0.7", 8080)

	d := cfg.GetDevice("wifid-b")
	if d == nil {
		t.Fatal("device not created")
	}
	if d.LastSeen.Before(before) {
		t.Errorf("LastSeen = %v, want after %v", d.LastSeen, before)
	}
	if d.LastIP != "10.0.0.7" || d.Port != 8080 {
		t.Errorf("device = %+v", d)
	}
}
