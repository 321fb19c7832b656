package wifi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/logging"
	"github.com/muurk/wifid/internal/radio"
)

// Connect associates with the network named in the request body and reports
// the outcome once the radio leaves the connecting state.
//
// Phases: parse, attempt, poll, report, freed. A malformed body goes straight
// from parse to freed with a 400 and no radio calls.
func (a *API) Connect(req *cgi.Request) cgi.Result {
	if !req.BodyComplete() {
		return cgi.More()
	}

	switch st := req.State().(type) {
	case nil:
		s := &connectState{phase: phaseInit}
		req.Attach(s)

		body, err := parseConnectRequest(req.Body())
		if err != nil {
			logging.Info("Rejected connect request",
				zap.Uint64("request_id", req.ID()),
				zap.Error(err))
			return a.connectReject(req, s)
		}
		s.ssid, s.pwd = body.SSID, body.Password

		move(req, "connect", &s.phase, phaseAttempt)
		return cgi.MoreAfter(a.connectDelay)

	case *connectState:
		return a.connectStep(req, st)

	default:
		return unexpectedState(req, "connect")
	}
}

func (a *API) connectStep(req *cgi.Request, st *connectState) cgi.Result {
	switch st.phase {
	case phaseAttempt:
		if err := validateCredentials(st.ssid, st.pwd); err != nil {
			return a.connectReject(req, st)
		}
		if err := a.registry.Connect(st.ssid, st.pwd); err != nil {
			// Status polling reports whatever the radio ends up in.
			logging.Warn("Connect attempt failed", zap.Uint64("request_id", req.ID()), zap.Error(err))
		} else {
			st.connecting = true
			cgi.NewLink(req).OnCancel(func() { a.finishConnect(st) })
		}
		move(req, "connect", &st.phase, phasePoll)
		return cgi.MoreAfter(a.pollInterval)

	case phasePoll:
		status := a.registry.PollStatus()
		if status.IsFailure() {
			logging.Info("Connection failed, clearing station config",
				zap.Uint64("request_id", req.ID()),
				zap.String("ssid", st.ssid),
				zap.Stringer("status", status))
			if err := a.registry.ResetStation(); err != nil {
				logging.Warn("Station reset failed", zap.Error(err))
			}
		}
		if status == radio.StatusConnecting {
			return cgi.MoreAfter(a.pollInterval)
		}

		move(req, "connect", &st.phase, phaseReport)
		beginJSON(req)
		writeJSON(req, ConnectResponse{
			Status: status,
			IP:     a.registry.IP(status),
		})
		a.finishConnect(st)
		move(req, "connect", &st.phase, phaseFreed)
		return cgi.More()

	case phaseFreed:
		req.Release()
		return cgi.Done()

	default:
		// Early re-invocation between phases; wait for the armed timer.
		return cgi.MoreAfter(a.pollInterval)
	}
}

// finishConnect releases the registry's connecting count once per request,
// whether the request reports or is aborted mid-poll.
func (a *API) finishConnect(st *connectState) {
	if !st.connecting {
		return
	}
	st.connecting = false
	a.registry.FinishConnect()
}

func (a *API) connectReject(req *cgi.Request, st *connectState) cgi.Result {
	if err := req.WriteStatus(http.StatusBadRequest); err != nil {
		logging.Debug("Write status failed", zap.Uint64("request_id", req.ID()), zap.Error(err))
	}
	move(req, "connect", &st.phase, phaseFreed)
	return cgi.More()
}

// parseConnectRequest decodes and validates a connect body. Both fields
// must be present JSON strings.
func parseConnectRequest(body []byte) (ConnectRequest, error) {
	var raw struct {
		SSID     *string `json:"ssid"`
		Password *string `json:"pwd"`
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return ConnectRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if raw.SSID == nil {
		return ConnectRequest{}, errors.New("missing field ssid")
	}
	if raw.Password == nil {
		return ConnectRequest{}, errors.New("missing field pwd")
	}
	if err := validateCredentials(*raw.SSID, *raw.Password); err != nil {
		return ConnectRequest{}, err
	}

	return ConnectRequest{SSID: *raw.SSID, Password: *raw.Password}, nil
}

func validateCredentials(ssid, pwd string) error {
	if ssid == "" {
		return errors.New("ssid is empty")
	}
	if len(ssid) > radio.MaxSSIDLen {
		return fmt.Errorf("ssid is %d bytes, limit is %d", len(ssid), radio.MaxSSIDLen)
	}
	if len(pwd) > radio.MaxPasswordLen {
		return fmt.Errorf("pwd is %d bytes, limit is %d", len(pwd), radio.MaxPasswordLen)
	}
	return nil
}
