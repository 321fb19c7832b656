package wifi

import (
	"time"
	"unicode/utf8"

	"github.com/muurk/wifid/internal/radio"
)

// AccessPoint is one visible network as reported to clients.
type AccessPoint struct {
	SSID    string         `json:"ssid"`
	RSSI    int            `json:"rssi"`
	Enc     radio.AuthMode `json:"enc"`
	Channel int            `json:"channel"`
}

// Catalog is the result of one completed scan. It is never modified after
// NewCatalog returns; a new scan produces a new Catalog.
type Catalog struct {
	aps       []AccessPoint
	dropped   int
	scannedAt time.Time
}

// NewCatalog builds a catalog from raw driver results, keeping driver order.
// Hidden networks (empty SSID) are dropped and SSIDs are cut to 32 bytes.
func NewCatalog(results []radio.BSS) *Catalog {
	c := &Catalog{
		aps:       make([]AccessPoint, 0, len(results)),
		scannedAt: time.Now(),
	}
	for _, bss := range results {
		if bss.SSID == "" {
			c.dropped++
			continue
		}
		c.aps = append(c.aps, AccessPoint{
			SSID:    truncate(bss.SSID, radio.MaxSSIDLen),
			RSSI:    bss.RSSI,
			Enc:     bss.Auth,
			Channel: bss.Channel,
		})
	}
	return c
}

// Len returns the number of access points. A nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.aps)
}

// AccessPoints returns a copy of the entries in scan order. It never
// returns nil.
func (c *Catalog) AccessPoints() []AccessPoint {
	if c == nil {
		return []AccessPoint{}
	}
	return append(make([]AccessPoint, 0, len(c.aps)), c.aps...)
}

// Dropped returns how many hidden networks were left out.
func (c *Catalog) Dropped() int {
	if c == nil {
		return 0
	}
	return c.dropped
}

// ScannedAt returns when the catalog was built.
func (c *Catalog) ScannedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.scannedAt
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
