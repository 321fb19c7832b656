package wifi

import (
	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/logging"
)

// Scan starts a radio scan, or joins the one already running, and reports
// the resulting catalog.
//
// Phases: init, waiting (poll until the registry clears its scan flag),
// report (write the catalog), freed.
func (a *API) Scan(req *cgi.Request) cgi.Result {
	if !req.BodyComplete() {
		return cgi.More()
	}

	switch st := req.State().(type) {
	case nil:
		s := &scanState{phase: phaseInit}
		req.Attach(s)

		started, err := a.registry.StartScan()
		if err != nil {
			// Reported as whatever catalog we already have.
			logging.Warn("Scan request failed", zap.Uint64("request_id", req.ID()), zap.Error(err))
		}
		s.started = started

		beginJSON(req)
		move(req, "scan", &s.phase, phaseWaiting)
		return cgi.More()

	case *scanState:
		return a.scanStep(req, st)

	default:
		return unexpectedState(req, "scan")
	}
}

func (a *API) scanStep(req *cgi.Request, st *scanState) cgi.Result {
	switch st.phase {
	case phaseWaiting:
		if a.registry.Scanning() {
			return cgi.MoreAfter(a.pollInterval)
		}
		move(req, "scan", &st.phase, phaseReport)
		fallthrough

	case phaseReport:
		catalog := a.registry.Catalog()
		aps := catalog.AccessPoints()
		writeJSON(req, ScanResponse{APCount: len(aps), AP: aps})
		st.apIndex = len(aps)

		logging.Debug("Scan reported",
			zap.Uint64("request_id", req.ID()),
			zap.Bool("started_scan", st.started),
			zap.Int("ap_count", st.apIndex))

		move(req, "scan", &st.phase, phaseFreed)
		return cgi.More()

	default:
		req.Release()
		return cgi.Done()
	}
}
