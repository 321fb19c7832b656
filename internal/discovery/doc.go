// Package discovery advertises and finds wifid daemons over mDNS.
//
// The daemon registers itself as a "_wifid._tcp" service with Advertise.
// Its TXT records carry the API prefix and the daemon version:
//
//	path=/wifi
//	version=1.0.0
//
// wifictl browses for the same service type with a Scanner. Each response
// becomes a Device with the instance name, address, port and TXT metadata.
//
// # Usage Example
//
//	devices, err := discovery.ScanForDevices(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, device := range devices {
//	    fmt.Println(device)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Daemon and client must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
