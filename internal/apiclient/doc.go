// Package apiclient is the HTTP client used by wifictl to drive a wifid
// daemon over its /wifi endpoints.
//
// Requests are retried with exponential backoff on network errors and 5xx
// responses. Scan and connect block on the daemon until the radio has
// finished, so they run under a separate, longer timeout and are not
// retried once that timeout expires.
//
// Errors are returned as *APIError and classified so the CLI can print a
// short message and a troubleshooting hint:
//
//	resp, err := client.Connect("home", pwd)
//	if err != nil {
//		fmt.Println(apiclient.GetShortErrorMessage(err))
//		fmt.Println(apiclient.GetTroubleshootingHint(err))
//	}
//
// The Format* functions render responses in detailed, compact or json
// form.
package apiclient
