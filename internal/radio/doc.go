// Package radio defines the WiFi radio driver abstraction used by the
// wifid handlers, together with the status, auth and mode enumerations
// that appear on the wire.
//
// Two implementations live in sub-packages:
//   - radio/iwd drives iwd over the system D-Bus
//   - radio/sim is an in-memory scripted radio for tests and demos
//
// Drivers never block their callers. Scan results are delivered through a
// ScanDone callback which may run on any goroutine; callers are expected to
// marshal it back onto their own thread of control.
package radio
