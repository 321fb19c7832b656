package wifi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/httpclient"
	"github.com/muurk/wifid/internal/logging"
)

// CheckInternet fetches the probe URL and reports whether it answered with
// 200. The request sits in Await until the sub-request callback resumes it.
func (a *API) CheckInternet(req *cgi.Request) cgi.Result {
	if !req.BodyComplete() {
		return cgi.More()
	}

	switch st := req.State().(type) {
	case nil:
		s := &probeState{phase: phaseWaiting}
		req.Attach(s)
		beginJSON(req)

		s.link = cgi.NewLink(req)
		s.sub = a.client.New(func(sr *httpclient.SubRequest, state httpclient.State) httpclient.Action {
			return a.probeDone(s, sr, state)
		})
		s.link.OnCancel(s.sub.Cancel)

		if err := s.sub.Get(a.probeURL); err != nil {
			logging.Warn("Internet check not started",
				zap.Uint64("request_id", req.ID()),
				zap.String("url", a.probeURL),
				zap.Error(err))
			move(req, "check-internet", &s.phase, phaseUnreachable)
			return cgi.More()
		}
		return cgi.Await()

	case *probeState:
		switch st.phase {
		case phaseWaiting:
			return cgi.Await()
		case phaseReachable:
			writeJSON(req, InternetResponse{Status: InternetReachable})
			move(req, "check-internet", &st.phase, phaseFreed)
			return cgi.More()
		case phaseUnreachable:
			writeJSON(req, InternetResponse{Status: InternetUnreachable})
			move(req, "check-internet", &st.phase, phaseFreed)
			return cgi.More()
		default:
			req.Release()
			return cgi.Done()
		}

	default:
		return unexpectedState(req, "check-internet")
	}
}

// probeDone runs on the loop when the sub-request makes progress.
func (a *API) probeDone(st *probeState, sr *httpclient.SubRequest, state httpclient.State) httpclient.Action {
	if !st.link.Valid() {
		// The client went away while the probe was in flight.
		return httpclient.Stop
	}
	outer := st.link.Outer()

	var next phase
	switch state {
	case httpclient.StateDNSNotFound, httpclient.StateFailed:
		next = phaseUnreachable
	case httpclient.StateBodyEnd:
		next = phaseUnreachable
		if sr.StatusCode() == http.StatusOK {
			next = phaseReachable
		}
	default:
		return httpclient.Continue
	}

	logging.Debug("Internet check finished",
		zap.Uint64("request_id", outer.ID()),
		zap.Stringer("probe_state", state),
		zap.Int("probe_status", sr.StatusCode()))

	move(outer, "check-internet", &st.phase, next)
	a.loop.Resume(outer)
	return httpclient.Stop
}
