package server

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifid/internal/logging"
)

// writeWait bounds a single write to the client.
const writeWait = 10 * time.Second

type chunk struct {
	data []byte
	sent func()
}

// connWriter is the cgi.Output of one connection. Send queues and returns;
// a writer goroutine performs the socket writes in order and reports each
// completed chunk through its sent callback.
type connWriter struct {
	conn       net.Conn
	remoteAddr string

	mu      sync.Mutex
	queue   []chunk
	closing bool
	notify  chan struct{}

	// done is closed once the queue is drained after Close, or on a
	// write error.
	done   chan struct{}
	failed bool
}

func newConnWriter(conn net.Conn, remoteAddr string) *connWriter {
	w := &connWriter{
		conn:       conn,
		remoteAddr: remoteAddr,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *connWriter) Send(p []byte, sent func()) {
	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		return
	}
	w.queue = append(w.queue, chunk{data: p, sent: sent})
	w.mu.Unlock()
	w.wake()
}

func (w *connWriter) Close() {
	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()
	w.wake()
}

// Failed reports whether a write to the client failed.
func (w *connWriter) Failed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}

func (w *connWriter) wake() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *connWriter) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		queue := w.queue
		w.queue = nil
		closing := w.closing
		w.mu.Unlock()

		for _, c := range queue {
			if err := w.write(c.data); err != nil {
				logging.Debug("Client write failed",
					zap.String("remote_addr", w.remoteAddr),
					zap.Error(err))
				w.mu.Lock()
				w.failed = true
				w.closing = true
				w.queue = nil
				w.mu.Unlock()
				return
			}
			if c.sent != nil {
				c.sent()
			}
		}

		if closing && len(queue) == 0 {
			return
		}
		if len(queue) == 0 {
			<-w.notify
		}
	}
}

func (w *connWriter) write(p []byte) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	_, err := w.conn.Write(p)
	return err
}
