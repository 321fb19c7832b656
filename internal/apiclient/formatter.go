package apiclient

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/muurk/wifid/internal/radio"
	"github.com/muurk/wifid/internal/wifi"
)

// AuthName returns the display name of an encryption mode
func AuthName(m radio.AuthMode) string {
	switch m {
	case radio.AuthOpen:
		return "OPEN"
	case radio.AuthWEP:
		return "WEP"
	case radio.AuthWPAPSK:
		return "WPA-PSK"
	case radio.AuthWPA2PSK:
		return "WPA2-PSK"
	case radio.AuthWPAWPA2PSK:
		return "WPA/WPA2-PSK"
	case radio.AuthWPA2Enterprise:
		return "WPA2-Enterprise"
	default:
		return fmt.Sprintf("enc(%d)", int(m))
	}
}

// ModeName returns the display name of an operating mode
func ModeName(m radio.OpMode) string {
	switch m {
	case radio.ModeNull:
		return "off"
	case radio.ModeStation:
		return "station"
	case radio.ModeSoftAP:
		return "access point"
	case radio.ModeStationAP:
		return "station + access point"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// StatusDescription returns a sentence describing a station status
func StatusDescription(s radio.StationStatus) string {
	switch s {
	case radio.StatusIdle:
		return "Not connected"
	case radio.StatusConnecting:
		return "Connecting"
	case radio.StatusWrongPassword:
		return "Wrong password"
	case radio.StatusNoAPFound:
		return "Network not found"
	case radio.StatusConnectFail:
		return "Connection failed"
	case radio.StatusGotIP:
		return "Connected"
	default:
		return s.String()
	}
}

// SignalQuality buckets an RSSI in dBm
func SignalQuality(rssi int) string {
	switch {
	case rssi >= -50:
		return "excellent"
	case rssi >= -60:
		return "good"
	case rssi >= -70:
		return "fair"
	default:
		return "weak"
	}
}

func formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	return string(data) + "\n", nil
}

// FormatStatus renders a status response
func FormatStatus(s *wifi.StatusResponse, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return formatJSON(s)

	case FormatCompact:
		line := StatusDescription(s.StationStatus)
		if s.SSID != "" {
			line += " ssid=" + s.SSID
		}
		if s.IP != "" {
			line += " ip=" + s.IP
		}
		if s.Scanning {
			line += " (scanning)"
		}
		return line + "\n", nil

	case FormatDetailed, "":
		var b strings.Builder
		b.WriteString("=== WiFi Status ===\n")
		b.WriteString(fmt.Sprintf("Status:   %s (%d)\n", StatusDescription(s.StationStatus), int(s.StationStatus)))
		ssid := s.SSID
		if ssid == "" {
			ssid = "(none)"
		}
		b.WriteString(fmt.Sprintf("Network:  %s\n", ssid))
		ip := s.IP
		if ip == "" {
			ip = "(none)"
		}
		b.WriteString(fmt.Sprintf("IP:       %s\n", ip))
		b.WriteString(fmt.Sprintf("Mode:     %s\n", ModeName(s.Mode)))
		b.WriteString(fmt.Sprintf("Scanning: %v\n", s.Scanning))
		return b.String(), nil

	default:
		return "", ValidateFormat(format)
	}
}

// FormatScan renders a scan response, strongest network first
func FormatScan(s *wifi.ScanResponse, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return formatJSON(s)

	case FormatCompact:
		var b strings.Builder
		for _, ap := range sortedAPs(s.AP) {
			b.WriteString(fmt.Sprintf("%s\t%d\t%s\n", ap.SSID, ap.RSSI, AuthName(ap.Enc)))
		}
		return b.String(), nil

	case FormatDetailed, "":
		var b strings.Builder
		b.WriteString(fmt.Sprintf("=== %d network(s) found ===\n", s.APCount))
		if len(s.AP) == 0 {
			return b.String(), nil
		}

		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SSID\tSIGNAL\tSECURITY\tCHANNEL")
		for _, ap := range sortedAPs(s.AP) {
			channel := "-"
			if ap.Channel > 0 {
				channel = fmt.Sprintf("%d", ap.Channel)
			}
			fmt.Fprintf(tw, "%s\t%d dBm (%s)\t%s\t%s\n", ap.SSID, ap.RSSI, SignalQuality(ap.RSSI), AuthName(ap.Enc), channel)
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
		return b.String(), nil

	default:
		return "", ValidateFormat(format)
	}
}

func sortedAPs(aps []wifi.AccessPoint) []wifi.AccessPoint {
	out := append([]wifi.AccessPoint(nil), aps...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RSSI > out[j].RSSI })
	return out
}

// FormatConnect renders the outcome of a connect request
func FormatConnect(ssid string, r *wifi.ConnectResponse, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return formatJSON(r)

	case FormatCompact:
		if r.Status == radio.StatusGotIP {
			return fmt.Sprintf("connected %s %s\n", ssid, r.IP), nil
		}
		return fmt.Sprintf("failed %s %s\n", ssid, r.Status), nil

	case FormatDetailed, "":
		if r.Status == radio.StatusGotIP {
			return fmt.Sprintf("Connected to %s\nIP address: %s\n", ssid, r.IP), nil
		}
		return fmt.Sprintf("Could not connect to %s: %s (status %d)\n", ssid, StatusDescription(r.Status), int(r.Status)), nil

	default:
		return "", ValidateFormat(format)
	}
}

// FormatInternet renders a reachability result
func FormatInternet(r *wifi.InternetResponse, format string) (string, error) {
	reachable := r.Status == wifi.InternetReachable

	switch strings.ToLower(format) {
	case FormatJSON:
		return formatJSON(r)

	case FormatCompact:
		if reachable {
			return "reachable\n", nil
		}
		return "unreachable\n", nil

	case FormatDetailed, "":
		if reachable {
			return "Internet: reachable\n", nil
		}
		return "Internet: unreachable\n", nil

	default:
		return "", ValidateFormat(format)
	}
}
