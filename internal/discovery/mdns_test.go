package discovery

import (
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func newEntry(instance, host string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name:     "daemon with IPv4",
			entry:    newEntry("wifid", "pi.local.", 80, []net.IP{net.ParseIP("192.168.4.16")}, nil, "path=/wifi"),
			wantIP:   "192.168.4.16",
			wantPort: 80,
		},
		{
			name:     "custom port",
			entry:    newEntry("wifid-lab", "lab.local.", 8080, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name:     "no port specified (should default to 80)",
			entry:    newEntry("wifid", "pi.local.", 0, []net.IP{net.ParseIP("172.16.0.1")}, nil),
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name:    "empty instance",
			entry:   newEntry("", "pi.local.", 80, []net.IP{net.ParseIP("192.168.1.1")}, nil),
			wantNil: true,
		},
		{
			name:    "no IP address",
			entry:   newEntry("wifid", "pi.local.", 80, nil, nil),
			wantNil: true,
		},
		{
			name:     "IPv6 only",
			entry:    newEntry("wifid", "pi.local.", 80, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name:     "both families (should prefer IPv4)",
			entry:    newEntry("wifid", "pi.local.", 80, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}),
			wantIP:   "192.168.1.50",
			wantPort: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.Instance != tt.entry.Instance {
				t.Errorf("device.Instance = %v, want %v", device.Instance, tt.entry.Instance)
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if device.Hostname != tt.entry.HostName {
				t.Errorf("device.Hostname = %v, want %v", device.Hostname, tt.entry.HostName)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := newEntry("wifid", "pi.local.", 80, []net.IP{net.ParseIP("192.168.4.16")}, nil,
		"path=/wifi", "version=1.2.0", "flag", "eq=a=b")

	device := scanner.parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expected := map[string]string{
		"path":    "/wifi",
		"version": "1.2.0",
		"flag":    "",
		"eq":      "a=b",
	}
	if !reflect.DeepEqual(device.Metadata, expected) {
		t.Errorf("device.Metadata = %v, want %v", device.Metadata, expected)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestAdvertiseOptionsTXT(t *testing.T) {
	tests := []struct {
		name string
		opts AdvertiseOptions
		want []string
	}{
		{"full", AdvertiseOptions{Path: "/wifi", Version: "1.0.0"}, []string{"path=/wifi", "version=1.0.0"}},
		{"path only", AdvertiseOptions{Path: "/wifi"}, []string{"path=/wifi"}},
		{"empty", AdvertiseOptions{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.TXT(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TXT() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdvertiseRequiresInstance(t *testing.T) {
	if _, err := Advertise(AdvertiseOptions{Port: 80}); err == nil {
		t.Fatal("Advertise() without instance should fail")
	}
}

// Note: live mDNS registration and browsing need multicast on the test
// host and are exercised manually with wifid serve and wifictl discover.
