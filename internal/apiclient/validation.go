package apiclient

import (
	"fmt"
	"strings"

	"github.com/muurk/wifid/internal/radio"
)

// Limits enforced by the daemon on POST /wifi/connect.
const (
	MaxSSIDLength     = radio.MaxSSIDLen
	MaxPasswordLength = radio.MaxPasswordLen
)

// Output formats understood by the formatters.
const (
	FormatDetailed = "detailed"
	FormatCompact  = "compact"
	FormatJSON     = "json"
)

// ValidateSSID validates a WiFi SSID.
// SSIDs must be non-empty and at most 32 bytes.
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return NewValidationError("WiFi SSID cannot be empty")
	}
	if len(ssid) > MaxSSIDLength {
		return NewValidationError(fmt.Sprintf("WiFi SSID too long (max %d bytes): %d bytes", MaxSSIDLength, len(ssid)))
	}
	return nil
}

// ValidatePassword validates a WiFi password. Empty is allowed for open
// networks; the radio decides whether a short passphrase is acceptable.
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordLength {
		return NewValidationError(fmt.Sprintf("WiFi password too long (max %d bytes): %d bytes", MaxPasswordLength, len(password)))
	}
	return nil
}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatDetailed, FormatCompact, FormatJSON:
		return nil
	default:
		return NewValidationError(fmt.Sprintf("unknown output format %q (expected %s, %s or %s)",
			format, FormatDetailed, FormatCompact, FormatJSON))
	}
}
