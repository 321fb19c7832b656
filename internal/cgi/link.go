package cgi

// Link ties an outer request to a nested operation it is waiting on.
//
// The outer side holds the Link to cancel the nested operation; the nested
// side checks Valid before touching the outer request, because the outer
// request may have been torn down while the nested one was in flight.
type Link struct {
	outer     *Request
	cancelled bool
	onCancel  []func()
}

// NewLink creates a link owned by outer. Aborting or finishing outer
// cancels the link.
func NewLink(outer *Request) *Link {
	l := &Link{outer: outer}
	outer.links = append(outer.links, l)
	return l
}

// Outer returns the owning request.
func (l *Link) Outer() *Request {
	return l.outer
}

// Valid reports whether the outer request can still be continued.
func (l *Link) Valid() bool {
	return !l.cancelled && l.outer.Alive()
}

// OnCancel registers fn to run when the link is cancelled. If the link is
// already cancelled fn runs immediately.
func (l *Link) OnCancel(fn func()) {
	if l.cancelled {
		fn()
		return
	}
	l.onCancel = append(l.onCancel, fn)
}

// Cancel invalidates the link and runs the cancel hooks once.
func (l *Link) Cancel() {
	if l.cancelled {
		return
	}
	l.cancelled = true
	hooks := l.onCancel
	l.onCancel = nil
	for _, fn := range hooks {
		fn()
	}
}
