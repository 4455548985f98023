// Package metrics records prometheus metrics for the store server and serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	RPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "widecolumn_rpc_requests_total",
		Help: "Total number of RPCs by method and status code.",
	}, []string{"method", "code"})
	RPCRequestsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "widecolumn_rpc_requests_in_flight",
		Help: "Current RPCs being served.",
	}, []string{"method"})
	RPCRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "widecolumn_rpc_requests_duration",
		Help:    "Duration of RPCs in seconds by method.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"method"})
	ScannedRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "widecolumn_scanned_rows_total",
		Help: "Rows streamed to scan callers by table.",
	}, []string{"table"})
)

// UnaryInterceptor records count, latency and in-flight gauges for unary calls.
func UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler) (any, error) {
	done := observe(info.FullMethod)
	resp, err := handler(ctx, req)
	done(err)
	return resp, err
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor.
func StreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo,
	handler grpc.StreamHandler) error {
	done := observe(info.FullMethod)
	err := handler(srv, ss)
	done(err)
	return err
}

func observe(method string) func(error) {
	start := time.Now()
	RPCRequestsInFlight.WithLabelValues(method).Inc()
	return func(err error) {
		RPCRequestsInFlight.WithLabelValues(method).Dec()
		RPCRequestsTotal.WithLabelValues(method, status.Code(err).String()).Inc()
		RPCRequestsDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}

// Server exposes /metrics and implements app.Dependency.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

type Config struct {
	Address string
	Port    int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Address == "" {
		errGrp = append(errGrp, fmt.Errorf("address required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errGrp = append(errGrp, fmt.Errorf("port out of range: %d", c.Port))
	}
	return errors.Join(errGrp...)
}

// NewServer binds the metrics listener. Port 0 picks a free port.
func NewServer(cfg *Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	router := http.NewServeMux()
	router.Handle("/metrics", promhttp.Handler())

	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.Address, fmt.Sprint(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics listener on port %d: %w", cfg.Port, err)
	}

	return &Server{
		srv: &http.Server{
			ReadTimeout:  time.Second * 10,
			WriteTimeout: time.Second * 10,
			Handler:      router,
		},
		listener: lis,
	}, nil
}

// Addr is the bound listener address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Start() error {
	log.Info().Msgf("metrics server listening at %s", s.Addr())
	go func() {
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return nil
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) Name() string {
	return "Metrics Server"
}
