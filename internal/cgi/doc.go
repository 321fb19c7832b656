// Package cgi implements the cooperative request protocol the WiFi handlers
// are written against.
//
// A Handler is called repeatedly for one request. Each call does a small
// amount of work and returns a Result saying when it wants to run again:
//
//	More()        after pending output is flushed
//	MoreAfter(d)  after a timer fires
//	Await()       when a nested operation calls Loop.Resume
//	Done()        never; the response is complete
//
// Handlers keep their progress in the request's state slot (Attach, State,
// Release) and must release it on the call that returns Done.
//
// Every invocation runs on the Loop goroutine, so handlers, timers, radio
// callbacks and nested request callbacks never run concurrently. Code on
// other goroutines hands work to the loop with Post.
//
// A Link connects a request to a nested operation. Aborting the request
// cancels its links, and the nested side checks Link.Valid before touching
// the outer request.
package cgi
