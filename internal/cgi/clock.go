package cgi

import "time"

// Timer is a one-shot timer that can be disarmed.
type Timer interface {
	Stop() bool
}

// Clock arms one-shot timers. The loop uses it for MoreAfter results.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by time.AfterFunc.
func RealClock() Clock {
	return realClock{}
}
