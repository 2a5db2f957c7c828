package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/discovery"
	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/radio"
	"github.com/muurk/lampsmart/internal/version"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds graceful shutdown. It must exceed the
// longest transmission duration so in-flight commands finish advertising.
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	CertPath string // Serve HTTPS when both CertPath and KeyPath are set
	KeyPath  string

	Announce bool   // Register over mDNS
	Instance string // mDNS instance name, defaults to the hostname

	ShutdownTimeout time.Duration
}

// EventSource delivers completed transmissions. *radio.Transmitter
// implements it.
type EventSource interface {
	Subscribe(fn func(radio.Transmission))
}

// Server is the lampsmart HTTP bridge
type Server struct {
	config    *Config
	operator  device.Operator
	hub       *Hub
	tlsConfig *tls.Config
	handler   http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	announcer  *discovery.Announcer
}

// New creates a Server for op. Transmissions from events, if non-nil, are
// streamed to /api/events.
func New(config *Config, op device.Operator, events EventSource) (*Server, error) {
	s := &Server{
		config:   config,
		operator: op,
		hub:      NewHub(),
	}

	if config.CertPath != "" || config.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	if events != nil {
		events.Subscribe(func(tr radio.Transmission) {
			s.hub.Publish(NewEvent(tr))
		})
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.handler }

// Hub returns the event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Addr returns the listening address once Start has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves until ctx is cancelled, a shutdown signal arrives, or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	scheme := "http"
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
		scheme = "https"
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	logging.Info("Starting LampSmart bridge",
		zap.String("addr", listener.Addr().String()),
		zap.String("scheme", scheme),
		zap.String("version", version.Version),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	if s.config.Announce {
		s.announce(listener.Addr())
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping bridge...")
	case <-ctx.Done():
		logging.Info("Context cancelled, stopping bridge...")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("bridge stopped: %w", err)
		}
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) announce(addr net.Addr) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return
	}

	instance := s.config.Instance
	if instance == "" {
		instance, _ = os.Hostname()
	}

	meta := map[string]string{"version": version.Version}
	if devices, err := s.operator.Devices(context.Background()); err == nil {
		meta["devices"] = strconv.Itoa(len(devices))
	}
	if s.tlsConfig != nil {
		meta["scheme"] = "https"
	}

	announcer, err := discovery.Announce(instance, tcp.Port, meta)
	if err != nil {
		// Discovery is a convenience; clients can still use --bridge
		logging.Warn("mDNS registration failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.announcer = announcer
	s.mu.Unlock()
	logging.Info("Registered bridge over mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", tcp.Port))
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	s.mu.Lock()
	announcer, httpServer := s.announcer, s.httpServer
	s.announcer = nil
	s.mu.Unlock()

	if announcer != nil {
		announcer.Shutdown()
	}

	// Hijacked WebSocket connections are not tracked by http.Server
	s.hub.Close()

	var err error
	if httpServer != nil {
		if err = httpServer.Shutdown(ctx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			_ = httpServer.Close()
		}
	}

	logging.Sync()
	return err
}
