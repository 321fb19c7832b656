package wifi

import (
	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/logging"
)

// Status reports the scan flag, station configuration, mode and connection
// status.
func (a *API) Status(req *cgi.Request) cgi.Result {
	if !req.BodyComplete() {
		return cgi.More()
	}

	switch st := req.State().(type) {
	case nil:
		req.Attach(&statusState{phase: phaseHeaders})
		beginJSON(req)
		return cgi.More()

	case *statusState:
		if st.phase == phaseFreed {
			req.Release()
			return cgi.Done()
		}

		a.registry.Refresh()
		status := a.registry.LastStatus()
		logging.Debug("Status read",
			zap.Uint64("request_id", req.ID()),
			zap.Stringer("station_status", status),
			zap.Bool("scanning", a.registry.Scanning()),
			zap.Bool("connecting", a.registry.Connecting()))
		writeJSON(req, StatusResponse{
			Scanning:      a.registry.Scanning(),
			SSID:          a.registry.Station().SSID,
			Mode:          a.registry.Mode(),
			StationStatus: status,
			IP:            a.registry.IP(status),
		})
		move(req, "status", &st.phase, phaseFreed)
		return cgi.More()

	default:
		return unexpectedState(req, "status")
	}
}
