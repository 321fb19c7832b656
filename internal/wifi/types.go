package wifi

import "github.com/muurk/wifid/internal/radio"

// Request and response bodies of the /wifi endpoints.

// StatusResponse is returned by GET /wifi/status.
type StatusResponse struct {
	Scanning      bool                `json:"scanning"`
	SSID          string              `json:"ssid"`
	Mode          radio.OpMode        `json:"mode"`
	StationStatus radio.StationStatus `json:"station_status"`
	IP            string              `json:"ip"`
}

// ScanResponse is returned by GET /wifi/scan.
type ScanResponse struct {
	APCount int           `json:"ap_count"`
	AP      []AccessPoint `json:"ap"`
}

// ConnectRequest is the body of POST /wifi/connect.
type ConnectRequest struct {
	SSID     string `json:"ssid"`
	Password string `json:"pwd"`
}

// ConnectResponse is returned by POST /wifi/connect.
type ConnectResponse struct {
	Status radio.StationStatus `json:"status"`
	IP     string              `json:"ip"`
}

// InternetResponse is returned by GET /wifi/check-internet.
type InternetResponse struct {
	Status int `json:"status"`
}

// Values of InternetResponse.Status.
const (
	InternetUnreachable = 0
	InternetReachable   = 1
)
