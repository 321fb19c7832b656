package iwd

import (
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
)

const (
	agentPath     = dbus.ObjectPath("/com/muurk/wifid/agent")
	agentIface    = "net.connman.iwd.Agent"
	agentMgrIface = "net.connman.iwd.AgentManager"

	// credentialTTL bounds how long a passphrase waits for iwd to ask.
	credentialTTL = 30 * time.Second
)

type pendingCredential struct {
	password string
	created  time.Time
}

// agent answers iwd passphrase requests for the network being joined.
type agent struct {
	conn *dbus.Conn

	mu      sync.Mutex
	pending map[dbus.ObjectPath]pendingCredential
	asked   map[dbus.ObjectPath]bool
}

func newAgent(conn *dbus.Conn) *agent {
	return &agent{
		conn:    conn,
		pending: make(map[dbus.ObjectPath]pendingCredential),
		asked:   make(map[dbus.ObjectPath]bool),
	}
}

func (a *agent) setPending(network dbus.ObjectPath, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[network] = pendingCredential{password: password, created: time.Now()}
	delete(a.asked, network)
}

// takeAsked reports whether iwd asked for the passphrase of network since
// setPending, and forgets the credential.
func (a *agent) takeAsked(network dbus.ObjectPath) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	asked := a.asked[network]
	delete(a.asked, network)
	delete(a.pending, network)
	return asked
}

func (a *agent) clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = make(map[dbus.ObjectPath]pendingCredential)
}

// RequestPassphrase is called by iwd for PSK and SAE networks.
func (a *agent) RequestPassphrase(network dbus.ObjectPath) (string, *dbus.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.asked[network] = true
	cred, ok := a.pending[network]
	if !ok {
		logging.Debug("Passphrase requested without pending credential", zap.String("network", string(network)))
		return "", dbus.NewError(agentIface+".Error.Canceled", []interface{}{"no credential available"})
	}
	if time.Since(cred.created) > credentialTTL {
		delete(a.pending, network)
		return "", dbus.NewError(agentIface+".Error.Canceled", []interface{}{"credential expired"})
	}

	logging.Debug("Passphrase supplied", zap.String("network", string(network)), zap.Int("length", len(cred.password)))
	return cred.password, nil
}

// RequestPrivateKeyPassphrase is not supported.
func (a *agent) RequestPrivateKeyPassphrase(network dbus.ObjectPath) (string, *dbus.Error) {
	return "", dbus.NewError(agentIface+".Error.Canceled", []interface{}{"not supported"})
}

// RequestUserNameAndPassword is not supported.
func (a *agent) RequestUserNameAndPassword(network dbus.ObjectPath) (string, string, *dbus.Error) {
	return "", "", dbus.NewError(agentIface+".Error.Canceled", []interface{}{"not supported"})
}

// RequestUserPassword is not supported.
func (a *agent) RequestUserPassword(network dbus.ObjectPath, user string) (string, *dbus.Error) {
	return "", dbus.NewError(agentIface+".Error.Canceled", []interface{}{"not supported"})
}

// Cancel is called by iwd when an outstanding request is dropped.
func (a *agent) Cancel(reason string) *dbus.Error {
	logging.Debug("Agent request cancelled", zap.String("reason", reason))
	a.clear()
	return nil
}

// Release is called by iwd when the agent is unregistered.
func (a *agent) Release() *dbus.Error {
	a.clear()
	return nil
}

func (a *agent) register() error {
	if err := a.conn.Export(a, agentPath, agentIface); err != nil {
		return err
	}
	obj := a.conn.Object(service, "/net/connman/iwd")
	return obj.Call(agentMgrIface+".RegisterAgent", 0, agentPath).Err
}

func (a *agent) unregister() error {
	obj := a.conn.Object(service, "/net/connman/iwd")
	return obj.Call(agentMgrIface+".UnregisterAgent", 0, agentPath).Err
}
