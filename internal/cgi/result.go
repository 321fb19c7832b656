package cgi

import (
	"fmt"
	"time"
)

type resultKind int

const (
	kindMore resultKind = iota
	kindMoreAfter
	kindAwait
	kindDone
)

// Result is what a Handler returns to tell the loop how to continue.
//
// More, MoreAfter and Await all mean "call me again" and differ only in
// what triggers the next invocation. Done is terminal.
type Result struct {
	kind  resultKind
	delay time.Duration
}

// More asks to be invoked again once pending output has been flushed, or on
// the next loop turn when nothing was written.
func More() Result {
	return Result{kind: kindMore}
}

// MoreAfter asks to be invoked again after d. It replaces any timer already
// armed for the request.
func MoreAfter(d time.Duration) Result {
	return Result{kind: kindMoreAfter, delay: d}
}

// Await suspends until something outside the request calls Loop.Resume.
func Await() Result {
	return Result{kind: kindAwait}
}

// Done ends the request. No further invocations happen.
func Done() Result {
	return Result{kind: kindDone}
}

// Terminal reports whether the result is Done.
func (r Result) Terminal() bool {
	return r.kind == kindDone
}

// Delay returns the re-invocation delay of a MoreAfter result.
func (r Result) Delay() time.Duration {
	return r.delay
}

// Waiting reports whether the result is Await.
func (r Result) Waiting() bool {
	return r.kind == kindAwait
}

func (r Result) String() string {
	switch r.kind {
	case kindMore:
		return "more"
	case kindMoreAfter:
		return fmt.Sprintf("more_after(%s)", r.delay)
	case kindAwait:
		return "await"
	case kindDone:
		return "done"
	default:
		return fmt.Sprintf("result(%d)", int(r.kind))
	}
}
