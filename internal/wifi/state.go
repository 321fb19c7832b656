package wifi

import (
	"fmt"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/httpclient"
	"github.com/muurk/wifid/internal/logging"
)

type phase int

const (
	phaseInit phase = iota
	phaseHeaders
	phaseWaiting
	phaseAttempt
	phasePoll
	phaseReport
	phaseReachable
	phaseUnreachable
	phaseFreed
)

func (p phase) String() string {
	switch p {
	case phaseInit:
		return "init"
	case phaseHeaders:
		return "headers"
	case phaseWaiting:
		return "waiting"
	case phaseAttempt:
		return "attempt"
	case phasePoll:
		return "poll"
	case phaseReport:
		return "report"
	case phaseReachable:
		return "reachable"
	case phaseUnreachable:
		return "unreachable"
	case phaseFreed:
		return "freed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type statusState struct {
	phase phase
}

func (*statusState) Kind() cgi.Kind { return cgi.KindStatus }

type scanState struct {
	phase   phase
	started bool
	apIndex int
}

func (*scanState) Kind() cgi.Kind { return cgi.KindScan }

type connectState struct {
	phase phase
	ssid  string
	pwd   string

	// connecting is set while this request holds a Registry.Connect.
	connecting bool
}

func (*connectState) Kind() cgi.Kind { return cgi.KindConnect }

type probeState struct {
	phase phase
	sub   *httpclient.SubRequest
	link  *cgi.Link
}

func (*probeState) Kind() cgi.Kind { return cgi.KindProbe }

// move changes *p to next and logs the transition.
func move(req *cgi.Request, handler string, p *phase, next phase) {
	logging.LogTransition(handler, req.ID(), *p, next)
	*p = next
}
