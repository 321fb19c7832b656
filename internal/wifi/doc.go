// Package wifi implements the /wifi HTTP endpoints on top of the cgi request
// protocol.
//
// Every handler is a small state machine whose progress lives in the
// request's state slot:
//
//	Status         headers, body, freed
//	Scan           init, waiting, report, freed
//	Connect        parse, attempt, poll, report, freed
//	Disconnect     single step, no state
//	CheckInternet  waiting, reachable or unreachable, freed
//
// The Registry holds the WiFi state shared by all requests: the scan flag,
// the station configuration, the last known status and the latest scan
// Catalog. Only one radio scan is outstanding at a time; concurrent scan
// requests wait on the same one.
package wifi
