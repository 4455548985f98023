package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/litetable/widecolumn/internal/metrics"
	"github.com/litetable/widecolumn/internal/storage"
	"github.com/litetable/widecolumn/internal/wire"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
	grpc2 "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

//go:generate mockgen -destination=./grpc_mock.go -package=grpc -source=grpc.go

type grpcServer interface {
	Serve(lis net.Listener) error
	GracefulStop()
}

// operations is the storage engine surface served over the wire.
type operations interface {
	Tables() []string
	TableState(name string) storage.State
	Families(name string) ([]string, error)
	CreateTable(name string, families []string) error
	DisableTable(name string) error
	EnableTable(name string) error
	DropTable(name string) error
	AddFamily(name, family string) error
	DeleteFamily(name, family string) error
	Apply(name string, key []byte, family string, muts []model.Mutation) (model.Timestamp, error)
	Get(name string, key []byte, opts model.ReadOptions) (*model.Row, error)
	Delete(name string, key []byte, family string, quals []string) (model.Timestamp, error)
	Scan(ctx context.Context, name string, scan model.Scan) (*storage.Scanner, error)
	Capabilities() model.Capabilities
}

// Server implements the app.Dependency interface for a gRPC server
type Server struct {
	address  string
	server   grpcServer
	health   *health.Server
	port     int
	listener net.Listener
}

type Config struct {
	Address string
	// Port 0 binds a free port, see Addr.
	Port int
	// MasterAddress is announced to clients, which refuse to connect when their configured
	// master differs.
	MasterAddress string
	Operations    operations
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Address == "" {
		errGrp = append(errGrp, fmt.Errorf("address required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errGrp = append(errGrp, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.MasterAddress == "" {
		errGrp = append(errGrp, fmt.Errorf("master address required"))
	}
	if c.Operations == nil {
		errGrp = append(errGrp, fmt.Errorf("operations required"))
	}

	return errors.Join(errGrp...)
}

// NewServer creates a new gRPC server instance
func NewServer(cfg *Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	srv := grpc2.NewServer(
		grpc2.ChainUnaryInterceptor(metrics.UnaryInterceptor, requestLogger),
		grpc2.ChainStreamInterceptor(metrics.StreamInterceptor, streamLogger),
	)

	srv.RegisterService(&wire.ServiceDesc, &store{
		masterAddress: cfg.MasterAddress,
		operations:    cfg.Operations,
	})

	hs := health.NewServer()
	hs.SetServingStatus(wire.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, hs)

	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.Address, fmt.Sprint(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on port %d: %w", cfg.Port, err)
	}

	return &Server{
		address:  cfg.Address,
		server:   srv,
		health:   hs,
		port:     lis.Addr().(*net.TCPAddr).Port,
		listener: lis,
	}, nil
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.address, fmt.Sprint(s.port))
}

func (s *Server) Start() error {
	log.Info().Msgf("gRPC server listening at %s", s.Addr())

	errCh := make(chan error, 1)

	go func() {
		if err := s.server.Serve(s.listener); err != nil {
			errCh <- err
			log.Error().Err(err).Msg("gRPC server failed")
			return
		}
		errCh <- nil
	}()

	// Block briefly for error or nil return
	select {
	case err := <-errCh:
		return err
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}

func (s *Server) Stop() error {
	log.Info().Msg("Stopping gRPC server")
	if s.health != nil {
		s.health.Shutdown()
	}
	s.server.GracefulStop()
	return nil
}

func (s *Server) Name() string {
	return "gRPC Server"
}
