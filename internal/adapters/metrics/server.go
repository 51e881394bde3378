package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const DefaultEndpoint = "/metrics"

// Server exposes the collector and Go runtime metrics over HTTP.
type Server struct {
	addr     string
	endpoint string
	log      logrus.FieldLogger

	registry *prometheus.Registry
	server   *http.Server
	listener net.Listener
}

func NewServer(addr string, endpoint string, log logrus.FieldLogger) *Server {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Server{addr: addr, endpoint: endpoint, log: log}
}

// Setup registers default and domain collectors and builds the handler.
func (s *Server) Setup(collector *Collector) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if collector != nil {
		for _, c := range collector.Collectors() {
			if err := registry.Register(c); err != nil {
				return fmt.Errorf("register collector: %w", err)
			}
		}
	}

	mux := http.NewServeMux()
	mux.Handle(s.endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.registry = registry
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Start binds the listener and serves in the background.
func (s *Server) Start(context.Context) error {
	if s.server == nil {
		return errors.New("metrics server not set up")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln

	go func() {
		s.log.Infof("metrics server listening on %s%s", ln.Addr(), s.endpoint)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("metrics server failed")
		}
	}()
	return nil
}

// Addr is the bound address once Start returned.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Debug("shutting down metrics server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}
