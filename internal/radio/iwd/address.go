package iwd

import (
	"fmt"
	"net"
	"sync"
	"syscall"

	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"
	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
)

// rtmgrpIPv4Ifaddr is the netlink multicast group for IPv4 address changes.
const rtmgrpIPv4Ifaddr = 0x10

// addressWatcher keeps the IPv4 address of one interface current.
type addressWatcher struct {
	index uint32
	name  string

	rt *rtnetlink.Conn
	nl *netlink.Conn

	mu sync.RWMutex
	ip net.IP

	done chan struct{}
}

func newAddressWatcher(name string) (*addressWatcher, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("lookup interface %s: %w", name, err)
	}

	rt, err := rtnetlink.Dial(nil)
	if err != nil {
		return nil, fmt.Errorf("dial rtnetlink: %w", err)
	}

	nl, err := netlink.Dial(syscall.NETLINK_ROUTE, &netlink.Config{Groups: rtmgrpIPv4Ifaddr})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("dial netlink: %w", err)
	}

	w := &addressWatcher{
		index: uint32(ifi.Index),
		name:  name,
		rt:    rt,
		nl:    nl,
		done:  make(chan struct{}),
	}
	w.refresh()
	return w, nil
}

// IP returns the current IPv4 address, or nil.
func (w *addressWatcher) IP() net.IP {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ip
}

func (w *addressWatcher) refresh() {
	addrs, err := w.rt.Address.List()
	if err != nil {
		logging.Warn("Address list failed", zap.String("interface", w.name), zap.Error(err))
		return
	}

	var ip net.IP
	for _, addr := range addrs {
		if addr.Index != w.index || addr.Family != syscall.AF_INET {
			continue
		}
		if addr.Attributes != nil && addr.Attributes.Address != nil {
			ip = addr.Attributes.Address.To4()
			break
		}
	}

	w.mu.Lock()
	changed := !w.ip.Equal(ip)
	w.ip = ip
	w.mu.Unlock()

	if changed {
		logging.Info("Interface address changed",
			zap.String("interface", w.name),
			zap.Stringer("ip", ip))
	}
}

// run re-reads the address whenever the kernel reports an IPv4 change on
// the watched interface. It returns after close.
func (w *addressWatcher) run() {
	for {
		msgs, err := w.nl.Receive()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}
			logging.Debug("Netlink receive error", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			if msg.Header.Type != syscall.RTM_NEWADDR && msg.Header.Type != syscall.RTM_DELADDR {
				continue
			}
			var am rtnetlink.AddressMessage
			if err := am.UnmarshalBinary(msg.Data); err != nil {
				continue
			}
			if am.Index == w.index {
				w.refresh()
			}
		}
	}
}

func (w *addressWatcher) close() {
	close(w.done)
	w.nl.Close()
	w.rt.Close()
}
