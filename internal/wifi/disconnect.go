package wifi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/logging"
)

// Disconnect clears the station configuration and drops the association.
// It completes in a single invocation once the body has arrived.
func (a *API) Disconnect(req *cgi.Request) cgi.Result {
	if !req.BodyComplete() {
		return cgi.More()
	}

	if err := a.registry.ResetStation(); err != nil {
		logging.Warn("Disconnect failed", zap.Uint64("request_id", req.ID()), zap.Error(err))
	}
	logging.Info("Station disconnected", zap.Uint64("request_id", req.ID()))

	_ = req.WriteStatus(http.StatusOK)
	return cgi.Done()
}
