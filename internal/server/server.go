package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/logging"
	"github.com/muurk/wifid/internal/wifi"
	"go.uber.org/zap"
)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	CertPath string // Serve TLS when both CertPath and KeyPath are set
	KeyPath  string
}

// Server accepts HTTP connections and feeds them into a cooperative loop.
type Server struct {
	config      *Config
	loop        *cgi.Loop
	dispatch    *Dispatcher
	listener    net.Listener
	tlsConfig   *tls.Config
	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]net.Conn
}

// New creates a new Server instance. The caller runs loop.
func New(config *Config, loop *cgi.Loop, routes []wifi.Route) (*Server, error) {
	var tlsConfig *tls.Config
	if config.CertPath != "" || config.KeyPath != "" {
		if config.CertPath == "" || config.KeyPath == "" {
			return nil, errors.New("both certificate and key are required for TLS")
		}
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	return &Server{
		config:      config,
		loop:        loop,
		dispatch:    NewDispatcher(routes),
		tlsConfig:   tlsConfig,
		activeConns: make(map[string]net.Conn),
	}, nil
}

// Listen opens the listening socket.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	var listener net.Listener
	var err error
	if s.tlsConfig != nil {
		listener, err = tls.Listen("tcp", addr, s.tlsConfig)
	} else {
		listener, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	logging.Info("Server listening for connections",
		zap.String("addr", listener.Addr().String()),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
	)
	return nil
}

// Addr returns the listening address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens and serves until ctx is cancelled or SIGINT/SIGTERM
// arrives.
func (s *Server) Start(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sigChan:
			logging.Info("Shutdown signal received, stopping server...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.Serve(ctx)
}

// Serve accepts connections on the listener opened by Listen until ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptConnections()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// acceptConnections accepts and handles incoming connections
func (s *Server) acceptConnections() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves a single request on conn. The loop owns the
// request from Start on; this goroutine only moves bytes and reports the
// client going away.
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		logging.LogConnection(remoteAddr, "connection_closed")
	}()

	logging.LogConnection(remoteAddr, "connection_accepted")

	if tlsConn, ok := conn.(*tls.Conn); ok {
		if err := tlsConn.Handshake(); err != nil {
			logging.Error("TLS handshake failed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
	}

	reader := bufio.NewReader(conn)
	hr, err := ReadHTTPRequest(reader, remoteAddr)
	if err != nil {
		logging.Debug("Failed to read HTTP request",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	route, handler := s.dispatch.Lookup(hr)
	LogHTTPRequestDetails(hr, route)

	out := newConnWriter(conn, remoteAddr)
	req := s.loop.NewRequest(hr, out)
	s.loop.Start(req, handler)

	body, err := ReadBody(hr)
	if err != nil {
		logging.Debug("Client went away while sending body",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		s.abort(req, out)
		return
	}
	s.loop.BodyDone(req, body)

	// Anything after the body is ignored; EOF or an error means the
	// client is gone.
	gone := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, reader)
		close(gone)
	}()

	select {
	case <-out.done:
		if out.Failed() {
			s.loop.Abort(req)
		}
	case <-gone:
		logging.Debug("Client closed connection before response completed",
			zap.String("remote_addr", remoteAddr),
			zap.String("path", hr.URL.Path),
		)
		s.abort(req, out)
	}
}

func (s *Server) abort(req *cgi.Request, out *connWriter) {
	s.loop.Abort(req)
	out.Close()
	<-out.done
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}

	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()

	return nil
}

// GetActiveConnections returns the number of active connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}
