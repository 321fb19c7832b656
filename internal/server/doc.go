// Package server is the HTTP transport in front of the cooperative handler
// loop.
//
// Each accepted connection carries exactly one request. The connection
// goroutine parses the request line and headers, looks the handler up in
// the dispatch table and starts the request on the loop. It then reads the
// body (at most MaxBodySize bytes) and hands it over with BodyDone. From
// then on the goroutine only watches the socket: if the client disconnects
// before the response is complete, the request is aborted on the loop.
//
// # Response Framing
//
// Responses are HTTP/1.0 with "Connection: close" and no Content-Length.
// The body ends when the server closes the connection:
//
//	HTTP/1.0 200 OK\r\n
//	Connection: close\r\n
//	Content-Type: application/json\r\n
//	\r\n
//	{"status":1}
//
// Output produced by a handler is queued to a per-connection writer
// goroutine. When a queued chunk has been written, the writer reports it
// to the loop, which is what resumes a handler that returned More.
//
// # Dispatch
//
// Routes are registered with gorilla/mux by name, method and path. A
// request that matches no route, including a known path with the wrong
// method, gets a 404.
//
// # TLS
//
// TLS is enabled when both a certificate and a key file are configured.
//
// # Usage Example
//
//	loop := cgi.NewLoop()
//	go loop.Run(ctx)
//
//	srv, err := server.New(&server.Config{Port: 80}, loop, api.Routes())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Start returns after SIGINT, SIGTERM or cancellation of its context:
//  1. Stop accepting new connections
//  2. Close existing connections, which aborts their requests
//  3. Wait for connection goroutines to finish
package server
