// Package logging provides structured logging for the wifid daemon and CLI.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used throughout the daemon: connection events, HTTP
// request/response summaries, and handler phase transitions.
//
// # Log Levels
//
//   - Debug: Handler invocations and transitions, raw response bytes
//   - Info: Connections, requests, scan and connect outcomes
//   - Warn: Non-fatal issues (radio errors, dropped callbacks)
//   - Error: Startup failures, listener errors
//
// # Structured Logging
//
//	logging.Info("Scan complete",
//	    zap.Int("ap_count", 7),
//	    zap.Int("dropped", 1),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the WIFID_LOG_LEVEL environment variable, and
// to a silent no-op logger when that is unset too. CLI commands rely on this
// so their stdout stays clean.
//
// # Credentials
//
// WiFi passwords are never passed to the logger; only their length is.
package logging
